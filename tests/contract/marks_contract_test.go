package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/handler"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
	"github.com/noah-isme/sms-marks-api/internal/service"
)

type stubResultService struct {
	stats dto.MarkStatsResponse
}

func (s stubResultService) ListClassMarks(context.Context, models.CohortKey) ([]dto.MarkResponse, error) {
	return nil, nil
}

func (s stubResultService) ListStudentMarks(context.Context, uint, repository.StudentMarkFilter, service.QueryScope) ([]dto.MarkResponse, error) {
	return nil, nil
}

func (s stubResultService) ResultSheet(context.Context, models.CohortKey, *uint, service.QueryScope) ([]dto.MarkResponse, error) {
	return nil, nil
}

func (s stubResultService) GetMark(context.Context, uint) (dto.MarkResponse, error) {
	return dto.MarkResponse{}, nil
}

func (s stubResultService) DeleteMark(context.Context, uint) error {
	return nil
}

func (s stubResultService) Stats(context.Context, models.CohortKey) (dto.MarkStatsResponse, error) {
	return s.stats, nil
}

func TestMarkStatsContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "mark_stats.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	stats := dto.MarkStatsResponse{
		Total:             3,
		Published:         2,
		NotPublished:      1,
		Passed:            2,
		Failed:            1,
		PassRate:          66.7,
		AveragePercentage: 61.25,
		AverageGPA:        3.17,
		Highest:           dto.StatsExtreme{Student: "Amina", Percentage: 90, GPA: 5, Grade: "A+"},
		Lowest:            dto.StatsExtreme{Student: "Rahim", Percentage: 20, GPA: 0, Grade: "F"},
		GradeDistribution: map[string]int{"A+": 1, "A": 1, "F": 1},
		GeneratedAt:       time.Now().UTC(),
		CacheHit:          false,
	}

	resultHandler := handler.NewResultHandler(stubResultService{stats: stats}, nil, zerolog.Nop())

	app := fiber.New()
	app.Get("/api/marks/stats/:classId", resultHandler.Stats)

	req := httptest.NewRequest(http.MethodGet, "/api/marks/stats/1?exam_type=annual&exam_year=2025", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

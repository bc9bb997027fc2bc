package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/handler"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
	"github.com/noah-isme/sms-marks-api/internal/service"
)

func setupNotificationApp(t *testing.T, userID string) (*fiber.App, service.NotificationService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger)

	app := fiber.New()
	group := app.Group("/api/notifications", func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	handler.NewNotificationHandler(svc, logger, time.Second).Register(group)

	return app, svc
}

func TestNotificationMarkReadUnknownIDReturnsNotFound(t *testing.T) {
	app, _ := setupNotificationApp(t, "u-1")

	req := httptest.NewRequest(http.MethodPatch, "/api/notifications/999/read", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationMarkReadFlagsOwnNotification(t *testing.T) {
	app, svc := setupNotificationApp(t, "u-1")

	created, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "u-1",
		Type:    "result",
		Message: "Your annual 2025 result is now available.",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/notifications/%d/read", created.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.NotificationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Data.Read)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
)

// ErrMarkNotFound indicates the referenced mark record does not exist.
var ErrMarkNotFound = errors.New("mark not found")

// QueryScope is an explicit capability parameter: callers with full access
// pass ScopeAll, student-facing callers pass ScopePublishedOnly. The core
// never inspects roles itself.
type QueryScope int

const (
	// ScopeAll returns every record, drafts included.
	ScopeAll QueryScope = iota
	// ScopePublishedOnly hides records still in the draft state.
	ScopePublishedOnly
)

// ResultService serves read-side mark queries plus the administrative delete.
type ResultService interface {
	ListClassMarks(ctx context.Context, key models.CohortKey) ([]dto.MarkResponse, error)
	ListStudentMarks(ctx context.Context, studentID uint, filter repository.StudentMarkFilter, scope QueryScope) ([]dto.MarkResponse, error)
	ResultSheet(ctx context.Context, key models.CohortKey, studentID *uint, scope QueryScope) ([]dto.MarkResponse, error)
	GetMark(ctx context.Context, id uint) (dto.MarkResponse, error)
	DeleteMark(ctx context.Context, id uint) error
	Stats(ctx context.Context, key models.CohortKey) (dto.MarkStatsResponse, error)
}

type resultService struct {
	repo   repository.MarkRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewResultService constructs the result query service.
func NewResultService(repo repository.MarkRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ResultService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resultService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "result_service").Logger(),
		now:    time.Now,
	}
}

func (s *resultService) ListClassMarks(ctx context.Context, key models.CohortKey) ([]dto.MarkResponse, error) {
	marks, err := s.repo.ListByCohort(ctx, key)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].Percentage > marks[j].Percentage
	})

	return dto.NewMarkResponseSlice(marks), nil
}

func (s *resultService) ListStudentMarks(ctx context.Context, studentID uint, filter repository.StudentMarkFilter, scope QueryScope) ([]dto.MarkResponse, error) {
	filter.PublishedOnly = filter.PublishedOnly || scope == ScopePublishedOnly

	marks, err := s.repo.ListByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewMarkResponseSlice(marks), nil
}

func (s *resultService) ResultSheet(ctx context.Context, key models.CohortKey, studentID *uint, scope QueryScope) ([]dto.MarkResponse, error) {
	marks, err := s.repo.ListByCohort(ctx, key)
	if err != nil {
		return nil, err
	}

	filtered := marks[:0]
	for _, mark := range marks {
		if studentID != nil && mark.StudentID != *studentID {
			continue
		}
		if scope == ScopePublishedOnly && !mark.IsPublished {
			continue
		}
		filtered = append(filtered, mark)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Position != filtered[j].Position {
			return filtered[i].Position < filtered[j].Position
		}
		return filtered[i].Percentage > filtered[j].Percentage
	})

	return dto.NewMarkResponseSlice(filtered), nil
}

func (s *resultService) GetMark(ctx context.Context, id uint) (dto.MarkResponse, error) {
	mark, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MarkResponse{}, ErrMarkNotFound
		}
		return dto.MarkResponse{}, err
	}

	return dto.NewMarkResponse(mark), nil
}

// DeleteMark is a hard removal, not a soft flag.
func (s *resultService) DeleteMark(ctx context.Context, id uint) error {
	mark, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMarkNotFound
		}
		return err
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrMarkNotFound
	}

	invalidateStatsCache(ctx, s.cache, models.CohortKey{ClassID: mark.ClassID, ExamType: mark.ExamType, ExamYear: mark.ExamYear}, s.logger)

	return nil
}

func (s *resultService) Stats(ctx context.Context, key models.CohortKey) (dto.MarkStatsResponse, error) {
	cacheKey := statsCacheKey(key)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.MarkStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
	}

	marks, err := s.repo.ListByCohort(ctx, key)
	if err != nil {
		return dto.MarkStatsResponse{}, err
	}

	response := s.buildStats(marks)

	if s.cache != nil && len(marks) > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

func (s *resultService) buildStats(marks []models.Mark) dto.MarkStatsResponse {
	response := dto.MarkStatsResponse{
		Total:             len(marks),
		GradeDistribution: map[string]int{},
		GeneratedAt:       s.now().UTC(),
	}
	if len(marks) == 0 {
		return response
	}

	var percentageSum, gpaSum float64
	highest := marks[0]
	lowest := marks[0]

	for _, mark := range marks {
		if mark.IsPublished {
			response.Published++
		}
		switch mark.Result {
		case models.ResultPass:
			response.Passed++
		case models.ResultFail:
			response.Failed++
		}
		if mark.Grade != "" {
			response.GradeDistribution[mark.Grade]++
		}

		percentageSum += mark.Percentage
		gpaSum += mark.GPA
		if mark.Percentage > highest.Percentage {
			highest = mark
		}
		if mark.Percentage < lowest.Percentage {
			lowest = mark
		}
	}

	total := float64(len(marks))
	response.NotPublished = response.Total - response.Published
	response.PassRate = math.Round(float64(response.Passed)/total*1000) / 10
	response.AveragePercentage = math.Round(percentageSum/total*100) / 100
	response.AverageGPA = math.Round(gpaSum/total*100) / 100
	response.Highest = statsExtreme(highest)
	response.Lowest = statsExtreme(lowest)

	return response
}

func statsExtreme(mark models.Mark) dto.StatsExtreme {
	return dto.StatsExtreme{
		Student:    mark.Student.Name,
		Percentage: mark.Percentage,
		GPA:        mark.GPA,
		Grade:      mark.Grade,
	}
}

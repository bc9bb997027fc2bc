package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/grading"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/observability"
	"github.com/noah-isme/sms-marks-api/internal/repository"
)

// Actor identifies the authenticated user performing a mutation.
type Actor struct {
	ID   uint
	Role string
}

// MarkEntryService upserts mark records, re-deriving every summary field from
// the submitted subjects before persistence.
type MarkEntryService interface {
	Save(ctx context.Context, payload dto.MarkSaveRequest, actor Actor) (dto.MarkResponse, error)
	SaveBulk(ctx context.Context, payload dto.BulkMarkSaveRequest, actor Actor) (dto.BulkSaveResponse, error)
}

type markEntryService struct {
	repo      repository.MarkRepository
	validator *validator.Validate
	cache     *redis.Client
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMarkEntryService constructs the mark entry service.
func NewMarkEntryService(repo repository.MarkRepository, validate *validator.Validate, cache *redis.Client, logger zerolog.Logger) MarkEntryService {
	return &markEntryService{
		repo:      repo,
		validator: validate,
		cache:     cache,
		logger:    logger.With().Str("component", "mark_entry_service").Logger(),
		now:       time.Now,
	}
}

func (s *markEntryService) Save(ctx context.Context, payload dto.MarkSaveRequest, actor Actor) (dto.MarkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MarkResponse{}, err
	}

	mark, err := s.upsert(ctx, payload.StudentID, models.CohortKey{
		ClassID:  payload.ClassID,
		ExamType: payload.ExamType,
		ExamYear: payload.ExamYear,
	}, dto.SubjectScoreInputsToModels(payload.Subjects), actor)
	if err != nil {
		return dto.MarkResponse{}, err
	}

	observability.MarksSaved().WithLabelValues("single").Inc()
	invalidateStatsCache(ctx, s.cache, models.CohortKey{ClassID: mark.ClassID, ExamType: mark.ExamType, ExamYear: mark.ExamYear}, s.logger)

	// Reload so the response carries the preloaded student and class.
	reloaded, err := s.repo.GetByID(ctx, mark.ID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("mark_id", mark.ID).Msg("failed to reload mark after save")
		return dto.NewMarkResponse(mark), nil
	}

	return dto.NewMarkResponse(reloaded), nil
}

func (s *markEntryService) SaveBulk(ctx context.Context, payload dto.BulkMarkSaveRequest, actor Actor) (dto.BulkSaveResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sms-marks-api/internal/service/mark_entry")
	ctx, span := tracer.Start(ctx, "marks.save_bulk")
	span.SetAttributes(
		attribute.Int64("marks.class_id", int64(payload.ClassID)),
		attribute.String("marks.exam_type", payload.ExamType),
		attribute.Int("marks.entries", len(payload.Marks)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.BulkSaveResponse{}, err
	}

	key := models.CohortKey{ClassID: payload.ClassID, ExamType: payload.ExamType, ExamYear: payload.ExamYear}
	response := dto.BulkSaveResponse{}

	// Entries are processed independently: one bad row is reported and the
	// rest of the batch still commits. Nothing is rolled back on later
	// failures.
	for _, entry := range payload.Marks {
		if entry.StudentID == 0 {
			continue
		}

		if _, err := s.upsert(ctx, entry.StudentID, key, dto.SubjectScoreInputsToModels(entry.Subjects), actor); err != nil {
			s.logger.Warn().Err(err).
				Uint("student_id", entry.StudentID).
				Uint("class_id", key.ClassID).
				Msg("bulk mark entry failed")
			response.Errors = append(response.Errors, dto.BulkSaveError{StudentID: entry.StudentID, Error: err.Error()})
			continue
		}

		response.SavedCount++
	}

	observability.MarksSaved().WithLabelValues("bulk").Add(float64(response.SavedCount))
	invalidateStatsCache(ctx, s.cache, key, s.logger)

	span.SetAttributes(
		attribute.Int("marks.saved", response.SavedCount),
		attribute.Int("marks.failed", len(response.Errors)),
	)

	return response, nil
}

// upsert resolves the (student, class, exam type, exam year) key against the
// store: update-in-place when a record exists, create otherwise. A create
// losing the race to a concurrent writer falls back to updating the winner's
// row, so the last full-subjects replace wins.
func (s *markEntryService) upsert(ctx context.Context, studentID uint, key models.CohortKey, subjects []models.SubjectScore, actor Actor) (models.Mark, error) {
	summary := grading.Aggregate(subjects)

	existing, err := s.repo.GetByKey(ctx, studentID, key.ClassID, key.ExamType, key.ExamYear)
	switch {
	case err == nil:
		applySummary(&existing, summary)
		existing.UpdatedBy = actor.ID
		if err := s.repo.Update(ctx, &existing); err != nil {
			return models.Mark{}, err
		}
		return existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		mark := models.Mark{
			StudentID: studentID,
			ClassID:   key.ClassID,
			ExamType:  key.ExamType,
			ExamYear:  key.ExamYear,
			Result:    models.ResultNotPublished,
			CreatedBy: actor.ID,
			UpdatedBy: actor.ID,
		}
		applySummary(&mark, summary)

		createErr := s.repo.Create(ctx, &mark)
		if createErr == nil {
			return mark, nil
		}
		if !errors.Is(createErr, repository.ErrMarkExists) {
			return models.Mark{}, createErr
		}

		winner, err := s.repo.GetByKey(ctx, studentID, key.ClassID, key.ExamType, key.ExamYear)
		if err != nil {
			return models.Mark{}, createErr
		}
		applySummary(&winner, summary)
		winner.UpdatedBy = actor.ID
		if err := s.repo.Update(ctx, &winner); err != nil {
			return models.Mark{}, err
		}
		return winner, nil

	default:
		return models.Mark{}, err
	}
}

func applySummary(mark *models.Mark, summary grading.Summary) {
	mark.Subjects = summary.Subjects
	mark.TotalObtained = summary.TotalObtained
	mark.TotalFullMarks = summary.TotalFullMarks
	mark.Percentage = summary.Percentage
	mark.GPA = summary.GPA
	mark.Grade = summary.Grade
}

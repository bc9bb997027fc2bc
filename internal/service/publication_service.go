package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/grading"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/observability"
	"github.com/noah-isme/sms-marks-api/internal/repository"
)

// ErrCohortEmpty indicates a publish was requested for a cohort with no
// saved marks.
var ErrCohortEmpty = errors.New("no marks found for this class and exam")

// ResultNotifier requests a result notification for one student. Delivery is
// owned elsewhere; implementations may fail and the publish flow will not.
type ResultNotifier interface {
	NotifyResultPublished(ctx context.Context, userID string, mark models.Mark) error
}

// PublicationService drives the draft/published transitions of a cohort:
// ranking, result stamping, visibility and best-effort notification.
type PublicationService interface {
	Publish(ctx context.Context, key models.CohortKey, actor Actor) (dto.PublishResponse, error)
	Unpublish(ctx context.Context, key models.CohortKey) (dto.UnpublishResponse, error)
}

type publicationService struct {
	repo     repository.MarkRepository
	notifier ResultNotifier
	cache    *redis.Client
	logger   zerolog.Logger
	now      func() time.Time
}

// NewPublicationService constructs the publication service. The notifier may
// be nil, in which case publishing simply skips notification requests.
func NewPublicationService(repo repository.MarkRepository, notifier ResultNotifier, cache *redis.Client, logger zerolog.Logger) PublicationService {
	return &publicationService{
		repo:     repo,
		notifier: notifier,
		cache:    cache,
		logger:   logger.With().Str("component", "publication_service").Logger(),
		now:      time.Now,
	}
}

func (s *publicationService) Publish(ctx context.Context, key models.CohortKey, actor Actor) (dto.PublishResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/sms-marks-api/internal/service/publication")
	ctx, span := tracer.Start(ctx, "results.publish")
	span.SetAttributes(
		attribute.Int64("results.class_id", int64(key.ClassID)),
		attribute.String("results.exam_type", key.ExamType),
		attribute.Int("results.exam_year", key.ExamYear),
	)
	defer span.End()

	start := s.now()
	defer func() {
		observability.PublishLatency().Observe(time.Since(start).Seconds())
	}()

	marks, err := s.repo.ListByCohort(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cohort_load_failed")
		return dto.PublishResponse{}, err
	}
	if len(marks) == 0 {
		span.SetStatus(codes.Error, "cohort_empty")
		return dto.PublishResponse{}, ErrCohortEmpty
	}

	// Stable sort keeps the store's insertion order between equal
	// percentages, so repeated publishes rank ties identically.
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].Percentage > marks[j].Percentage
	})

	publishedAt := s.now()
	response := dto.PublishResponse{}

	for i := range marks {
		mark := &marks[i]

		// Ties receive consecutive positions, not shared ones.
		mark.Position = i + 1
		if grading.Aggregate(mark.Subjects).HasFailed {
			mark.Result = models.ResultFail
		} else {
			mark.Result = models.ResultPass
		}
		mark.IsPublished = true
		mark.PublishedAt = &publishedAt
		mark.UpdatedBy = actor.ID

		// Every record is attempted; one failed save never blocks the
		// rest of the cohort.
		if err := s.repo.Update(ctx, mark); err != nil {
			s.logger.Error().Err(err).
				Uint("mark_id", mark.ID).
				Uint("student_id", mark.StudentID).
				Msg("failed to persist published mark")
			span.RecordError(err)
			response.Errors = append(response.Errors, dto.PublishError{StudentID: mark.StudentID, Error: err.Error()})
			continue
		}

		response.PublishedCount++
		observability.ResultsPublished().WithLabelValues(key.ExamType).Inc()
		s.notify(ctx, *mark)
	}

	invalidateStatsCache(ctx, s.cache, key, s.logger)

	span.SetAttributes(
		attribute.Int("results.published", response.PublishedCount),
		attribute.Int("results.failed", len(response.Errors)),
	)

	return response, nil
}

func (s *publicationService) Unpublish(ctx context.Context, key models.CohortKey) (dto.UnpublishResponse, error) {
	affected, err := s.repo.ResetCohort(ctx, key)
	if err != nil {
		return dto.UnpublishResponse{}, err
	}

	invalidateStatsCache(ctx, s.cache, key, s.logger)
	s.logger.Info().
		Uint("class_id", key.ClassID).
		Str("exam_type", key.ExamType).
		Int("exam_year", key.ExamYear).
		Int64("affected", affected).
		Msg("cohort unpublished")

	return dto.UnpublishResponse{AffectedCount: affected}, nil
}

// notify requests a result notification for the student behind the mark.
// Failures are swallowed: notification delivery is never allowed to fail a
// publish.
func (s *publicationService) notify(ctx context.Context, mark models.Mark) {
	if s.notifier == nil || mark.Student.UserID == "" {
		return
	}

	if err := s.notifier.NotifyResultPublished(ctx, mark.Student.UserID, mark); err != nil {
		s.logger.Warn().Err(err).
			Uint("mark_id", mark.ID).
			Str("user_id", mark.Student.UserID).
			Msg("failed to request result notification")
	}
}

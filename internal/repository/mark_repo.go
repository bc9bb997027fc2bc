package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/models"
)

// ErrMarkExists indicates a create raced with another writer for the same
// (student, class, exam type, exam year) key.
var ErrMarkExists = errors.New("mark already exists for this student and exam")

// StudentMarkFilter narrows per-student mark queries.
type StudentMarkFilter struct {
	ExamType      *string
	ExamYear      *int
	PublishedOnly bool
}

// MarkRepository defines the persistence boundary for mark records. The
// composite unique index on (student_id, class_id, exam_type, exam_year) is
// enforced here, not by application-level locking.
type MarkRepository interface {
	GetByKey(ctx context.Context, studentID, classID uint, examType string, examYear int) (models.Mark, error)
	GetByID(ctx context.Context, id uint) (models.Mark, error)
	ListByCohort(ctx context.Context, key models.CohortKey) ([]models.Mark, error)
	ListByStudent(ctx context.Context, studentID uint, filter StudentMarkFilter) ([]models.Mark, error)
	Create(ctx context.Context, mark *models.Mark) error
	Update(ctx context.Context, mark *models.Mark) error
	ResetCohort(ctx context.Context, key models.CohortKey) (int64, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type markRepository struct {
	db *gorm.DB
}

// NewMarkRepository instantiates the repository.
func NewMarkRepository(db *gorm.DB) MarkRepository {
	return &markRepository{db: db}
}

func (r *markRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Mark{}).
		Preload("Student").
		Preload("Class")
}

func (r *markRepository) GetByKey(ctx context.Context, studentID, classID uint, examType string, examYear int) (models.Mark, error) {
	var mark models.Mark
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Where("class_id = ?", classID).
		Where("exam_type = ?", examType).
		Where("exam_year = ?", examYear).
		First(&mark).Error; err != nil {
		return models.Mark{}, err
	}

	return mark, nil
}

func (r *markRepository) GetByID(ctx context.Context, id uint) (models.Mark, error) {
	var mark models.Mark
	if err := r.baseQuery(ctx).First(&mark, id).Error; err != nil {
		return models.Mark{}, err
	}

	return mark, nil
}

// ListByCohort returns the cohort in insertion order. Callers own any
// ranking-specific sort; a stable base order keeps repeated publishes
// deterministic.
func (r *markRepository) ListByCohort(ctx context.Context, key models.CohortKey) ([]models.Mark, error) {
	var marks []models.Mark
	if err := r.baseQuery(ctx).
		Where("class_id = ?", key.ClassID).
		Where("exam_type = ?", key.ExamType).
		Where("exam_year = ?", key.ExamYear).
		Order("id ASC").
		Find(&marks).Error; err != nil {
		return nil, err
	}

	return marks, nil
}

func (r *markRepository) ListByStudent(ctx context.Context, studentID uint, filter StudentMarkFilter) ([]models.Mark, error) {
	query := r.baseQuery(ctx).Where("student_id = ?", studentID)

	if filter.ExamType != nil {
		query = query.Where("exam_type = ?", *filter.ExamType)
	}
	if filter.ExamYear != nil {
		query = query.Where("exam_year = ?", *filter.ExamYear)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var marks []models.Mark
	if err := query.Order("exam_year DESC, created_at DESC").Find(&marks).Error; err != nil {
		return nil, err
	}

	return marks, nil
}

func (r *markRepository) Create(ctx context.Context, mark *models.Mark) error {
	if err := r.db.WithContext(ctx).Create(mark).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMarkExists
		}
		return err
	}

	return nil
}

func (r *markRepository) Update(ctx context.Context, mark *models.Mark) error {
	return r.db.WithContext(ctx).Save(mark).Error
}

// ResetCohort clears the publication fields for every record in the cohort
// with one bulk update and reports how many rows were touched.
func (r *markRepository) ResetCohort(ctx context.Context, key models.CohortKey) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Mark{}).
		Where("class_id = ?", key.ClassID).
		Where("exam_type = ?", key.ExamType).
		Where("exam_year = ?", key.ExamYear).
		Updates(map[string]interface{}{
			"is_published": false,
			"published_at": nil,
			"position":     0,
			"result":       models.ResultNotPublished,
		})

	return result.RowsAffected, result.Error
}

func (r *markRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Mark{}, id)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

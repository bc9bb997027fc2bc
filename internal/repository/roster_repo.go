package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/models"
)

// RosterRepository exposes the class directory data the mark workflows need:
// class lookup, enrolled students and the subject catalog.
type RosterRepository interface {
	GetClass(ctx context.Context, id uint) (models.Class, error)
	GetStudentByUserID(ctx context.Context, userID string) (models.Student, error)
	ListStudentsByClassName(ctx context.Context, className string) ([]models.Student, error)
	ListActiveSubjects(ctx context.Context, classID uint) ([]models.Subject, error)
}

type rosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository instantiates the repository.
func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) GetClass(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

// GetStudentByUserID resolves the student record owned by an account. Used to
// pin student-role callers onto their own record.
func (r *rosterRepository) GetStudentByUserID(ctx context.Context, userID string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

// ListStudentsByClassName matches on the class name because enrolment stores
// the name, not the class id. Roll-number order is the entry-grid order.
func (r *rosterRepository) ListStudentsByClassName(ctx context.Context, className string) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("class_name = ?", className).
		Order("roll_number ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *rosterRepository) ListActiveSubjects(ctx context.Context, classID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&subjects).Error; err != nil {
		return nil, err
	}

	return subjects, nil
}

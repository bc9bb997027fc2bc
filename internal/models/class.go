package models

import (
	"time"

	"gorm.io/datatypes"
)

// EmbeddedSubject is a loosely configured subject carried directly on a class
// row. Classes created before the subject catalog existed still describe
// their subjects this way.
type EmbeddedSubject struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Class groups students for enrolment and exams.
type Class struct {
	ID        uint                                 `gorm:"primaryKey" json:"id"`
	Name      string                               `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Section   string                               `gorm:"size:32" json:"section"`
	Subjects  datatypes.JSONSlice[EmbeddedSubject] `json:"subjects"`
	CreatedAt time.Time                            `json:"created_at"`
	UpdatedAt time.Time                            `json:"updated_at"`
}

// Subject is a catalog entry describing how one subject is examined for a
// class: which components exist and how many marks each carries.
type Subject struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ClassID            uint      `gorm:"not null;index:idx_subjects_class_active" json:"class_id"`
	Name               string    `gorm:"size:128;not null" json:"name"`
	Code               string    `gorm:"size:32" json:"code"`
	TheoryFullMarks    float64   `gorm:"not null;default:100" json:"theory_full_marks"`
	HasPractical       bool      `gorm:"not null;default:false" json:"has_practical"`
	PracticalFullMarks float64   `gorm:"not null;default:0" json:"practical_full_marks"`
	HasMCQ             bool      `gorm:"not null;default:false" json:"has_mcq"`
	MCQFullMarks       float64   `gorm:"not null;default:0" json:"mcq_full_marks"`
	PassMarks          float64   `gorm:"not null;default:33" json:"pass_marks"`
	IsActive           bool      `gorm:"not null;default:true;index:idx_subjects_class_active" json:"is_active"`
	SortOrder          int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExamType enumerates the supported examination rounds.
const (
	ExamFirstTerm  = "1st_term"
	ExamSecondTerm = "2nd_term"
	ExamThirdTerm  = "3rd_term"
	ExamHalfYearly = "half_yearly"
	ExamAnnual     = "annual"
	ExamTest       = "test"
	ExamMock       = "mock"
)

// Result states for a mark record.
const (
	ResultPass         = "Pass"
	ResultFail         = "Fail"
	ResultNotPublished = "Not Published"
)

// ExamTypes lists every valid exam type in declaration order.
var ExamTypes = []string{
	ExamFirstTerm,
	ExamSecondTerm,
	ExamThirdTerm,
	ExamHalfYearly,
	ExamAnnual,
	ExamTest,
	ExamMock,
}

// IsValidExamType reports whether the value belongs to the exam type enumeration.
func IsValidExamType(value string) bool {
	for _, examType := range ExamTypes {
		if examType == value {
			return true
		}
	}
	return false
}

// SubjectScore holds the entered and derived marks for one subject within a
// mark record. It has no identity of its own and is stored embedded in the
// mark row. Grade, grade point and the totals are always recomputed by the
// grading package before persistence; values supplied by callers for those
// fields are discarded.
type SubjectScore struct {
	SubjectName        string  `json:"subject_name"`
	SubjectCode        string  `json:"subject_code"`
	TheoryFullMarks    float64 `json:"theory_full_marks"`
	TheoryObtained     float64 `json:"theory_obtained"`
	PracticalFullMarks float64 `json:"practical_full_marks"`
	PracticalObtained  float64 `json:"practical_obtained"`
	MCQFullMarks       float64 `json:"mcq_full_marks"`
	MCQObtained        float64 `json:"mcq_obtained"`
	TotalFullMarks     float64 `json:"total_full_marks"`
	TotalObtained      float64 `json:"total_obtained"`
	Grade              string  `json:"grade"`
	GradePoint         float64 `json:"grade_point"`
	IsAbsent           bool    `json:"is_absent"`
	Remarks            string  `json:"remarks"`
}

// Mark is the per-student result record for one exam. Exactly one record may
// exist per (student, class, exam type, exam year); the composite unique
// index is the authority for that invariant.
type Mark struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StudentID uint   `gorm:"not null;uniqueIndex:idx_marks_cohort_student" json:"student_id"`
	ClassID   uint   `gorm:"not null;uniqueIndex:idx_marks_cohort_student;index:idx_marks_cohort" json:"class_id"`
	ExamType  string `gorm:"size:32;not null;uniqueIndex:idx_marks_cohort_student;index:idx_marks_cohort" json:"exam_type"`
	ExamYear  int    `gorm:"not null;uniqueIndex:idx_marks_cohort_student;index:idx_marks_cohort" json:"exam_year"`

	Subjects datatypes.JSONSlice[SubjectScore] `json:"subjects"`

	TotalObtained  float64 `gorm:"not null;default:0" json:"total_obtained"`
	TotalFullMarks float64 `gorm:"not null;default:0" json:"total_full_marks"`
	Percentage     float64 `gorm:"not null;default:0" json:"percentage"`
	GPA            float64 `gorm:"not null;default:0" json:"gpa"`
	Grade          string  `gorm:"size:8" json:"grade"`

	Position    int        `gorm:"not null;default:0" json:"position"`
	Result      string     `gorm:"size:16;not null;default:'Not Published'" json:"result"`
	IsPublished bool       `gorm:"not null;default:false;index" json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`

	CreatedBy uint      `json:"created_by"`
	UpdatedBy uint      `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Class   Class   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
}

// CohortKey identifies the set of mark records ranked and published together.
type CohortKey struct {
	ClassID  uint
	ExamType string
	ExamYear int
}

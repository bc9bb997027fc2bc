package dto

import (
	"time"

	"github.com/noah-isme/sms-marks-api/internal/models"
)

// SubjectScoreInput carries the raw per-subject marks entered by a teacher.
// Derived fields (totals, grade, grade point) supplied here are ignored; the
// grading package recomputes everything before persistence.
type SubjectScoreInput struct {
	SubjectName        string  `json:"subject_name" validate:"required,max=128"`
	SubjectCode        string  `json:"subject_code" validate:"max=32"`
	TheoryFullMarks    float64 `json:"theory_full_marks"`
	TheoryObtained     float64 `json:"theory_obtained"`
	PracticalFullMarks float64 `json:"practical_full_marks"`
	PracticalObtained  float64 `json:"practical_obtained"`
	MCQFullMarks       float64 `json:"mcq_full_marks"`
	MCQObtained        float64 `json:"mcq_obtained"`
	IsAbsent           bool    `json:"is_absent"`
	Remarks            string  `json:"remarks" validate:"max=500"`
}

// ToModel converts the input into the embedded value object.
func (s SubjectScoreInput) ToModel() models.SubjectScore {
	return models.SubjectScore{
		SubjectName:        s.SubjectName,
		SubjectCode:        s.SubjectCode,
		TheoryFullMarks:    s.TheoryFullMarks,
		TheoryObtained:     s.TheoryObtained,
		PracticalFullMarks: s.PracticalFullMarks,
		PracticalObtained:  s.PracticalObtained,
		MCQFullMarks:       s.MCQFullMarks,
		MCQObtained:        s.MCQObtained,
		IsAbsent:           s.IsAbsent,
		Remarks:            s.Remarks,
	}
}

// SubjectScoreInputsToModels converts a slice of inputs in order.
func SubjectScoreInputsToModels(inputs []SubjectScoreInput) []models.SubjectScore {
	subjects := make([]models.SubjectScore, 0, len(inputs))
	for _, input := range inputs {
		subjects = append(subjects, input.ToModel())
	}
	return subjects
}

// MarkSaveRequest upserts the marks of a single student for one exam.
type MarkSaveRequest struct {
	StudentID uint                `json:"student_id" validate:"required,gt=0"`
	ClassID   uint                `json:"class_id" validate:"required,gt=0"`
	ExamType  string              `json:"exam_type" validate:"required,oneof=1st_term 2nd_term 3rd_term half_yearly annual test mock"`
	ExamYear  int                 `json:"exam_year" validate:"required,gte=2000,lte=2100"`
	Subjects  []SubjectScoreInput `json:"subjects" validate:"required,min=1,dive"`
}

// BulkMarkEntry is one row of a batch submission. Rows without a student id
// are skipped, mirroring sparse entry grids that submit only touched rows.
type BulkMarkEntry struct {
	StudentID uint                `json:"student_id"`
	Subjects  []SubjectScoreInput `json:"subjects" validate:"dive"`
}

// BulkMarkSaveRequest upserts marks for an entire class in one call.
type BulkMarkSaveRequest struct {
	ClassID  uint            `json:"class_id" validate:"required,gt=0"`
	ExamType string          `json:"exam_type" validate:"required,oneof=1st_term 2nd_term 3rd_term half_yearly annual test mock"`
	ExamYear int             `json:"exam_year" validate:"required,gte=2000,lte=2100"`
	Marks    []BulkMarkEntry `json:"marks" validate:"required,dive"`
}

// CohortRequest identifies one (class, exam type, exam year) cohort for
// publish and unpublish transitions.
type CohortRequest struct {
	ClassID  uint   `json:"class_id" validate:"required,gt=0"`
	ExamType string `json:"exam_type" validate:"required,oneof=1st_term 2nd_term 3rd_term half_yearly annual test mock"`
	ExamYear int    `json:"exam_year" validate:"required,gte=2000,lte=2100"`
}

// Key converts the request into the cohort key used by the services.
func (r CohortRequest) Key() models.CohortKey {
	return models.CohortKey{ClassID: r.ClassID, ExamType: r.ExamType, ExamYear: r.ExamYear}
}

// BulkSaveError attributes a batch failure to a single student entry.
type BulkSaveError struct {
	StudentID uint   `json:"student_id"`
	Error     string `json:"error"`
}

// BulkSaveResponse summarises a partially-successful batch submission.
type BulkSaveResponse struct {
	SavedCount int             `json:"saved_count"`
	Errors     []BulkSaveError `json:"errors,omitempty"`
}

// PublishError attributes a publish persistence failure to one student.
type PublishError struct {
	StudentID uint   `json:"student_id"`
	Error     string `json:"error"`
}

// PublishResponse reports how many records were ranked and published.
type PublishResponse struct {
	PublishedCount int            `json:"published_count"`
	Errors         []PublishError `json:"errors,omitempty"`
}

// UnpublishResponse reports how many records a cohort reset touched.
type UnpublishResponse struct {
	AffectedCount int64 `json:"affected_count"`
}

// SubjectScoreResponse serialises one computed subject row.
type SubjectScoreResponse struct {
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

// StudentLite summarizes a student in mark responses.
type StudentLite struct {
	ID         uint   `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	StudentNo  string `json:"student_no"`
	RollNumber int    `json:"roll_number"`
	Section    string `json:"section"`
}

// ClassLite summarizes a class in mark responses.
type ClassLite struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
}

// MarkResponse is the persisted shape of a mark record returned to clients.
type MarkResponse struct {
	ID             uint                   `json:"id"`
	StudentID      uint                   `json:"student_id"`
	ClassID        uint                   `json:"class_id"`
	ExamType       string                 `json:"exam_type"`
	ExamYear       int                    `json:"exam_year"`
	Subjects       []SubjectScoreResponse `json:"subjects"`
	TotalObtained  float64                `json:"total_obtained"`
	TotalFullMarks float64                `json:"total_full_marks"`
	Percentage     float64                `json:"percentage"`
	GPA            float64                `json:"gpa"`
	Grade          string                 `json:"grade"`
	Position       int                    `json:"position"`
	Result         string                 `json:"result"`
	IsPublished    bool                   `json:"is_published"`
	PublishedAt    *time.Time             `json:"published_at"`
	CreatedBy      uint                   `json:"created_by"`
	UpdatedBy      uint                   `json:"updated_by"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Student        StudentLite            `json:"student"`
	Class          ClassLite              `json:"class"`
}

// NewMarkResponse converts a Mark model into a DTO.
func NewMarkResponse(model models.Mark) MarkResponse {
	subjects := make([]SubjectScoreResponse, 0, len(model.Subjects))
	for _, subject := range model.Subjects {
		subjects = append(subjects, SubjectScoreResponse(subject))
	}

	response := MarkResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		ClassID:        model.ClassID,
		ExamType:       model.ExamType,
		ExamYear:       model.ExamYear,
		Subjects:       subjects,
		TotalObtained:  model.TotalObtained,
		TotalFullMarks: model.TotalFullMarks,
		Percentage:     model.Percentage,
		GPA:            model.GPA,
		Grade:          model.Grade,
		Position:       model.Position,
		Result:         model.Result,
		IsPublished:    model.IsPublished,
		PublishedAt:    model.PublishedAt,
		CreatedBy:      model.CreatedBy,
		UpdatedBy:      model.UpdatedBy,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:         model.Student.ID,
			UserID:     model.Student.UserID,
			Name:       model.Student.Name,
			Email:      model.Student.Email,
			StudentNo:  model.Student.StudentNo,
			RollNumber: model.Student.RollNumber,
			Section:    model.Student.Section,
		}
	}

	if model.Class.ID != 0 {
		response.Class = ClassLite{
			ID:      model.Class.ID,
			Name:    model.Class.Name,
			Section: model.Class.Section,
		}
	}

	return response
}

// NewMarkResponseSlice converts a slice of marks to DTOs in order.
func NewMarkResponseSlice(marks []models.Mark) []MarkResponse {
	out := make([]MarkResponse, 0, len(marks))
	for _, mark := range marks {
		out = append(out, NewMarkResponse(mark))
	}
	return out
}

package dto

import "github.com/noah-isme/sms-marks-api/internal/models"

// Subject configuration sources for a class. Catalog entries come from
// Subject rows; classes without catalog rows fall back to the subject list
// embedded on the class record itself.
const (
	SubjectSourceCatalog        = "subject_catalog"
	SubjectSourceEmbeddedConfig = "class_embedded_config"
)

// SubjectConfigResponse describes how one subject is examined. ID is zero for
// entries resolved from the embedded class configuration.
type SubjectConfigResponse struct {
	ID                 uint    `json:"id"`
	Name               string  `json:"name"`
	Code               string  `json:"code"`
	TheoryFullMarks    float64 `json:"theory_full_marks"`
	HasPractical       bool    `json:"has_practical"`
	PracticalFullMarks float64 `json:"practical_full_marks"`
	HasMCQ             bool    `json:"has_mcq"`
	MCQFullMarks       float64 `json:"mcq_full_marks"`
	PassMarks          float64 `json:"pass_marks"`
}

// NewSubjectConfigResponse converts a catalog subject.
func NewSubjectConfigResponse(model models.Subject) SubjectConfigResponse {
	return SubjectConfigResponse{
		ID:                 model.ID,
		Name:               model.Name,
		Code:               model.Code,
		TheoryFullMarks:    model.TheoryFullMarks,
		HasPractical:       model.HasPractical,
		PracticalFullMarks: model.PracticalFullMarks,
		HasMCQ:             model.HasMCQ,
		MCQFullMarks:       model.MCQFullMarks,
		PassMarks:          model.PassMarks,
	}
}

// EntryGridStudent pairs a roster entry with any mark already saved for the
// requested exam, so the grid can pre-fill previously entered scores.
type EntryGridStudent struct {
	Student      StudentLite   `json:"student"`
	ExistingMark *MarkResponse `json:"existing_mark"`
}

// EntryGridResponse is the payload the mark-entry screen is built from.
type EntryGridResponse struct {
	Class         ClassLite               `json:"class"`
	SubjectSource string                  `json:"subject_source"`
	Subjects      []SubjectConfigResponse `json:"subjects"`
	Students      []EntryGridStudent      `json:"students"`
	TotalStudents int                     `json:"total_students"`
}

// AdmitCardSubject lists the examinable components of a subject on an admit card.
type AdmitCardSubject struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	HasPractical bool   `json:"has_practical"`
	HasMCQ       bool   `json:"has_mcq"`
}

// AdmitCardResponse is the printable admit-card payload for one student.
type AdmitCardResponse struct {
	Student  StudentLite        `json:"student"`
	Class    ClassLite          `json:"class"`
	ExamType string             `json:"exam_type"`
	ExamYear int                `json:"exam_year"`
	Subjects []AdmitCardSubject `json:"subjects"`
}

// NewStudentLite converts a student model.
func NewStudentLite(model models.Student) StudentLite {
	return StudentLite{
		ID:         model.ID,
		UserID:     model.UserID,
		Name:       model.Name,
		Email:      model.Email,
		StudentNo:  model.StudentNo,
		RollNumber: model.RollNumber,
		Section:    model.Section,
	}
}

// NewClassLite converts a class model.
func NewClassLite(model models.Class) ClassLite {
	return ClassLite{ID: model.ID, Name: model.Name, Section: model.Section}
}

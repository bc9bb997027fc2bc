package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
)

// ErrClassNotFound indicates the referenced class does not exist.
var ErrClassNotFound = errors.New("class not found")

// RosterService assembles the class-facing views around mark entry: the
// entry grid with existing-marks prefill, and admit-card data.
type RosterService interface {
	EntryGrid(ctx context.Context, classID uint, examType string, examYear int) (dto.EntryGridResponse, error)
	AdmitCards(ctx context.Context, classID uint, examType string, examYear int, studentID *uint) ([]dto.AdmitCardResponse, error)
}

type rosterService struct {
	roster repository.RosterRepository
	marks  repository.MarkRepository
	logger zerolog.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(roster repository.RosterRepository, marks repository.MarkRepository, logger zerolog.Logger) RosterService {
	return &rosterService{
		roster: roster,
		marks:  marks,
		logger: logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) EntryGrid(ctx context.Context, classID uint, examType string, examYear int) (dto.EntryGridResponse, error) {
	class, err := s.roster.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EntryGridResponse{}, ErrClassNotFound
		}
		return dto.EntryGridResponse{}, err
	}

	students, err := s.roster.ListStudentsByClassName(ctx, class.Name)
	if err != nil {
		return dto.EntryGridResponse{}, err
	}

	source, subjects, err := s.resolveSubjects(ctx, class)
	if err != nil {
		return dto.EntryGridResponse{}, err
	}

	// Pre-fill the grid with any marks already saved for this exam.
	existing := map[uint]models.Mark{}
	if models.IsValidExamType(examType) && examYear > 0 {
		marks, err := s.marks.ListByCohort(ctx, models.CohortKey{ClassID: classID, ExamType: examType, ExamYear: examYear})
		if err != nil {
			return dto.EntryGridResponse{}, err
		}
		for _, mark := range marks {
			existing[mark.StudentID] = mark
		}
	}

	rows := make([]dto.EntryGridStudent, 0, len(students))
	for _, student := range students {
		row := dto.EntryGridStudent{Student: dto.NewStudentLite(student)}
		if mark, ok := existing[student.ID]; ok {
			response := dto.NewMarkResponse(mark)
			row.ExistingMark = &response
		}
		rows = append(rows, row)
	}

	return dto.EntryGridResponse{
		Class:         dto.NewClassLite(class),
		SubjectSource: source,
		Subjects:      subjects,
		Students:      rows,
		TotalStudents: len(rows),
	}, nil
}

func (s *rosterService) AdmitCards(ctx context.Context, classID uint, examType string, examYear int, studentID *uint) ([]dto.AdmitCardResponse, error) {
	class, err := s.roster.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	students, err := s.roster.ListStudentsByClassName(ctx, class.Name)
	if err != nil {
		return nil, err
	}

	_, subjects, err := s.resolveSubjects(ctx, class)
	if err != nil {
		return nil, err
	}

	cardSubjects := make([]dto.AdmitCardSubject, 0, len(subjects))
	for _, subject := range subjects {
		cardSubjects = append(cardSubjects, dto.AdmitCardSubject{
			Name:         subject.Name,
			Code:         subject.Code,
			HasPractical: subject.HasPractical,
			HasMCQ:       subject.HasMCQ,
		})
	}

	cards := make([]dto.AdmitCardResponse, 0, len(students))
	for _, student := range students {
		if studentID != nil && student.ID != *studentID {
			continue
		}
		cards = append(cards, dto.AdmitCardResponse{
			Student:  dto.NewStudentLite(student),
			Class:    dto.NewClassLite(class),
			ExamType: examType,
			ExamYear: examYear,
			Subjects: cardSubjects,
		})
	}

	return cards, nil
}

// resolveSubjects decides the subject configuration source once per class
// lookup: the subject catalog when it has active rows for the class, else
// the subject list embedded on the class record.
func (s *rosterService) resolveSubjects(ctx context.Context, class models.Class) (string, []dto.SubjectConfigResponse, error) {
	catalog, err := s.roster.ListActiveSubjects(ctx, class.ID)
	if err != nil {
		return "", nil, err
	}

	if len(catalog) > 0 {
		subjects := make([]dto.SubjectConfigResponse, 0, len(catalog))
		for _, subject := range catalog {
			subjects = append(subjects, dto.NewSubjectConfigResponse(subject))
		}
		return dto.SubjectSourceCatalog, subjects, nil
	}

	subjects := make([]dto.SubjectConfigResponse, 0, len(class.Subjects))
	for _, embedded := range class.Subjects {
		subjects = append(subjects, dto.SubjectConfigResponse{
			Name:            embedded.Name,
			Code:            fallbackSubjectCode(embedded),
			TheoryFullMarks: 100,
			PassMarks:       33,
		})
	}
	return dto.SubjectSourceEmbeddedConfig, subjects, nil
}

func fallbackSubjectCode(subject models.EmbeddedSubject) string {
	if subject.Code != "" {
		return subject.Code
	}
	name := strings.TrimSpace(subject.Name)
	if len(name) >= 3 {
		return strings.ToUpper(name[:3])
	}
	return strings.ToUpper(name)
}

package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sms-marks-api/internal/dto"
	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// fakeMarkRepo is an in-memory MarkRepository used across the service tests.
type fakeMarkRepo struct {
	seq           uint
	marks         map[uint]*models.Mark
	failCreateFor map[uint]error
	failUpdateFor map[uint]error
	createCalls   int
	updateCalls   int
	resetCalls    int
}

func newFakeMarkRepo() *fakeMarkRepo {
	return &fakeMarkRepo{
		marks:         map[uint]*models.Mark{},
		failCreateFor: map[uint]error{},
		failUpdateFor: map[uint]error{},
	}
}

func (f *fakeMarkRepo) GetByKey(_ context.Context, studentID, classID uint, examType string, examYear int) (models.Mark, error) {
	for _, mark := range f.marks {
		if mark.StudentID == studentID && mark.ClassID == classID && mark.ExamType == examType && mark.ExamYear == examYear {
			return *mark, nil
		}
	}
	return models.Mark{}, gorm.ErrRecordNotFound
}

func (f *fakeMarkRepo) GetByID(_ context.Context, id uint) (models.Mark, error) {
	if mark, ok := f.marks[id]; ok {
		return *mark, nil
	}
	return models.Mark{}, gorm.ErrRecordNotFound
}

func (f *fakeMarkRepo) ListByCohort(_ context.Context, key models.CohortKey) ([]models.Mark, error) {
	var out []models.Mark
	for _, mark := range f.marks {
		if mark.ClassID == key.ClassID && mark.ExamType == key.ExamType && mark.ExamYear == key.ExamYear {
			out = append(out, *mark)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMarkRepo) ListByStudent(_ context.Context, studentID uint, filter repository.StudentMarkFilter) ([]models.Mark, error) {
	var out []models.Mark
	for _, mark := range f.marks {
		if mark.StudentID != studentID {
			continue
		}
		if filter.ExamType != nil && mark.ExamType != *filter.ExamType {
			continue
		}
		if filter.ExamYear != nil && mark.ExamYear != *filter.ExamYear {
			continue
		}
		if filter.PublishedOnly && !mark.IsPublished {
			continue
		}
		out = append(out, *mark)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMarkRepo) Create(_ context.Context, mark *models.Mark) error {
	f.createCalls++
	if err, ok := f.failCreateFor[mark.StudentID]; ok {
		return err
	}
	for _, existing := range f.marks {
		if existing.StudentID == mark.StudentID && existing.ClassID == mark.ClassID &&
			existing.ExamType == mark.ExamType && existing.ExamYear == mark.ExamYear {
			return repository.ErrMarkExists
		}
	}
	f.seq++
	mark.ID = f.seq
	copied := *mark
	f.marks[mark.ID] = &copied
	return nil
}

func (f *fakeMarkRepo) Update(_ context.Context, mark *models.Mark) error {
	f.updateCalls++
	if err, ok := f.failUpdateFor[mark.StudentID]; ok {
		return err
	}
	copied := *mark
	f.marks[mark.ID] = &copied
	return nil
}

func (f *fakeMarkRepo) ResetCohort(_ context.Context, key models.CohortKey) (int64, error) {
	f.resetCalls++
	var affected int64
	for _, mark := range f.marks {
		if mark.ClassID == key.ClassID && mark.ExamType == key.ExamType && mark.ExamYear == key.ExamYear {
			mark.IsPublished = false
			mark.PublishedAt = nil
			mark.Position = 0
			mark.Result = models.ResultNotPublished
			affected++
		}
	}
	return affected, nil
}

func (f *fakeMarkRepo) Delete(_ context.Context, id uint) (bool, error) {
	if _, ok := f.marks[id]; !ok {
		return false, nil
	}
	delete(f.marks, id)
	return true, nil
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func TestMarkEntrySaveRejectsMissingKeys(t *testing.T) {
	repo := newFakeMarkRepo()
	svc := NewMarkEntryService(repo, testValidator(), nil, testLogger())

	_, err := svc.Save(context.Background(), dto.MarkSaveRequest{
		StudentID: 1,
		ClassID:   2,
		// exam type missing
		ExamYear: 2025,
		Subjects: []dto.SubjectScoreInput{{SubjectName: "Math"}},
	}, Actor{ID: 9})

	require.Error(t, err)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Zero(t, repo.createCalls)
}

func TestMarkEntrySaveRejectsUnknownExamType(t *testing.T) {
	repo := newFakeMarkRepo()
	svc := NewMarkEntryService(repo, testValidator(), nil, testLogger())

	_, err := svc.Save(context.Background(), dto.MarkSaveRequest{
		StudentID: 1,
		ClassID:   2,
		ExamType:  "weekly",
		ExamYear:  2025,
		Subjects:  []dto.SubjectScoreInput{{SubjectName: "Math"}},
	}, Actor{ID: 9})

	require.Error(t, err)
	require.Zero(t, repo.createCalls)
}

func TestMarkEntrySaveCreatesThenUpdatesSameKey(t *testing.T) {
	repo := newFakeMarkRepo()
	svc := NewMarkEntryService(repo, testValidator(), nil, testLogger())

	payload := dto.MarkSaveRequest{
		StudentID: 7,
		ClassID:   3,
		ExamType:  models.ExamAnnual,
		ExamYear:  2025,
		Subjects: []dto.SubjectScoreInput{
			{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 85},
			{SubjectName: "English", TheoryFullMarks: 100, TheoryObtained: 65},
		},
	}

	first, err := svc.Save(context.Background(), payload, Actor{ID: 9, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 150.0, first.TotalObtained)
	require.Equal(t, 200.0, first.TotalFullMarks)
	require.Equal(t, 75.0, first.Percentage)
	require.Equal(t, 4.5, first.GPA)
	require.Equal(t, "A", first.Grade)
	require.Equal(t, uint(9), first.CreatedBy)

	payload.Subjects[1].TheoryObtained = 95
	second, err := svc.Save(context.Background(), payload, Actor{ID: 11, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "second save must update, not duplicate")
	require.Len(t, repo.marks, 1)
	require.Equal(t, 90.0, second.Percentage)
	require.Equal(t, uint(11), second.UpdatedBy)
	require.Equal(t, uint(9), second.CreatedBy)
}

func TestMarkEntrySaveFallsBackToUpdateOnCreateRace(t *testing.T) {
	repo := newFakeMarkRepo()
	// The winner of the race already persisted a row for the key.
	winner := models.Mark{StudentID: 5, ClassID: 1, ExamType: models.ExamTest, ExamYear: 2025}
	require.NoError(t, repo.Create(context.Background(), &winner))
	repo.createCalls = 0

	// Force the service down the create path by making the lookup miss once.
	raceRepo := &racingMarkRepo{fakeMarkRepo: repo, missFirstLookup: true}
	svc := NewMarkEntryService(raceRepo, testValidator(), nil, testLogger())

	response, err := svc.Save(context.Background(), dto.MarkSaveRequest{
		StudentID: 5,
		ClassID:   1,
		ExamType:  models.ExamTest,
		ExamYear:  2025,
		Subjects:  []dto.SubjectScoreInput{{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 50}},
	}, Actor{ID: 2})

	require.NoError(t, err)
	require.Equal(t, winner.ID, response.ID)
	require.Len(t, repo.marks, 1)
	require.Equal(t, 50.0, repo.marks[winner.ID].Percentage, "losing writer must still apply its subjects")
}

// racingMarkRepo simulates a concurrent writer by hiding the existing row
// from the first lookup only.
type racingMarkRepo struct {
	*fakeMarkRepo
	missFirstLookup bool
}

func (r *racingMarkRepo) GetByKey(ctx context.Context, studentID, classID uint, examType string, examYear int) (models.Mark, error) {
	if r.missFirstLookup {
		r.missFirstLookup = false
		return models.Mark{}, gorm.ErrRecordNotFound
	}
	return r.fakeMarkRepo.GetByKey(ctx, studentID, classID, examType, examYear)
}

func TestMarkEntrySaveBulkIsolatesFailures(t *testing.T) {
	repo := newFakeMarkRepo()
	repo.failCreateFor[2] = errors.New("student reference invalid")
	svc := NewMarkEntryService(repo, testValidator(), nil, testLogger())

	response, err := svc.SaveBulk(context.Background(), dto.BulkMarkSaveRequest{
		ClassID:  4,
		ExamType: models.ExamFirstTerm,
		ExamYear: 2025,
		Marks: []dto.BulkMarkEntry{
			{StudentID: 1, Subjects: []dto.SubjectScoreInput{{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 60}}},
			{StudentID: 2, Subjects: []dto.SubjectScoreInput{{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 70}}},
			{StudentID: 3, Subjects: []dto.SubjectScoreInput{{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 80}}},
		},
	}, Actor{ID: 8})

	require.NoError(t, err, "a partial batch is a result, not an error")
	require.Equal(t, 2, response.SavedCount)
	require.Len(t, response.Errors, 1)
	require.Equal(t, uint(2), response.Errors[0].StudentID)
	require.Contains(t, response.Errors[0].Error, "student reference invalid")
	require.Len(t, repo.marks, 2)
}

func TestMarkEntrySaveBulkSkipsRowsWithoutStudent(t *testing.T) {
	repo := newFakeMarkRepo()
	svc := NewMarkEntryService(repo, testValidator(), nil, testLogger())

	response, err := svc.SaveBulk(context.Background(), dto.BulkMarkSaveRequest{
		ClassID:  4,
		ExamType: models.ExamMock,
		ExamYear: 2025,
		Marks: []dto.BulkMarkEntry{
			{StudentID: 0, Subjects: []dto.SubjectScoreInput{{SubjectName: "Math"}}},
			{StudentID: 6, Subjects: []dto.SubjectScoreInput{{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 40}}},
		},
	}, Actor{ID: 8})

	require.NoError(t, err)
	require.Equal(t, 1, response.SavedCount)
	require.Empty(t, response.Errors, "blank rows are skipped, not errors")
}

func TestMarkEntrySaveBulkIdempotentByKey(t *testing.T) {
	repo := newFakeMarkRepo()
	svc := NewMarkEntryService(repo, testValidator(), nil, testLogger())

	payload := dto.BulkMarkSaveRequest{
		ClassID:  4,
		ExamType: models.ExamHalfYearly,
		ExamYear: 2025,
		Marks: []dto.BulkMarkEntry{
			{StudentID: 10, Subjects: []dto.SubjectScoreInput{{SubjectName: "Math", TheoryFullMarks: 100, TheoryObtained: 55}}},
		},
	}

	for i := 0; i < 2; i++ {
		response, err := svc.SaveBulk(context.Background(), payload, Actor{ID: 8})
		require.NoError(t, err)
		require.Equal(t, 1, response.SavedCount)
	}

	require.Len(t, repo.marks, 1, "resubmitting the same key must update in place")
}

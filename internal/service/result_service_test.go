package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sms-marks-api/internal/models"
	"github.com/noah-isme/sms-marks-api/internal/repository"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mini, client
}

func TestResultListClassMarksSortedByPercentage(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 1, ExamType: models.ExamAnnual, ExamYear: 2025}
	seedCohortMark(t, repo, 1, key, 55, passingSubjects(55), "u-1")
	seedCohortMark(t, repo, 2, key, 95, passingSubjects(95), "u-2")
	seedCohortMark(t, repo, 3, key, 75, passingSubjects(75), "u-3")

	svc := NewResultService(repo, nil, time.Minute, testLogger())
	marks, err := svc.ListClassMarks(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, marks, 3)
	require.Equal(t, []uint{2, 3, 1}, []uint{marks[0].StudentID, marks[1].StudentID, marks[2].StudentID})
}

func TestResultListStudentMarksScope(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 1, ExamType: models.ExamAnnual, ExamYear: 2025}
	draft := seedCohortMark(t, repo, 7, key, 55, passingSubjects(55), "u-7")
	published := seedCohortMark(t, repo, 7, models.CohortKey{ClassID: 1, ExamType: models.ExamFirstTerm, ExamYear: 2025}, 65, passingSubjects(65), "u-7")
	repo.marks[published].IsPublished = true

	svc := NewResultService(repo, nil, time.Minute, testLogger())

	all, err := svc.ListStudentMarks(context.Background(), 7, repository.StudentMarkFilter{}, ScopeAll)
	require.NoError(t, err)
	require.Len(t, all, 2)

	visible, err := svc.ListStudentMarks(context.Background(), 7, repository.StudentMarkFilter{}, ScopePublishedOnly)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.NotEqual(t, draft, visible[0].ID)
	require.True(t, visible[0].IsPublished)
}

func TestResultSheetFiltersAndOrders(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 2, ExamType: models.ExamAnnual, ExamYear: 2025}
	first := seedCohortMark(t, repo, 1, key, 80, passingSubjects(80), "u-1")
	second := seedCohortMark(t, repo, 2, key, 90, passingSubjects(90), "u-2")
	repo.marks[first].IsPublished = true
	repo.marks[first].Position = 2
	repo.marks[second].IsPublished = true
	repo.marks[second].Position = 1

	svc := NewResultService(repo, nil, time.Minute, testLogger())

	sheet, err := svc.ResultSheet(context.Background(), key, nil, ScopePublishedOnly)
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	require.Equal(t, 1, sheet[0].Position)
	require.Equal(t, 2, sheet[1].Position)

	studentID := uint(1)
	single, err := svc.ResultSheet(context.Background(), key, &studentID, ScopePublishedOnly)
	require.NoError(t, err)
	require.Len(t, single, 1)
	require.Equal(t, studentID, single[0].StudentID)
}

func TestResultGetMarkNotFound(t *testing.T) {
	svc := NewResultService(newFakeMarkRepo(), nil, time.Minute, testLogger())
	_, err := svc.GetMark(context.Background(), 999)
	require.ErrorIs(t, err, ErrMarkNotFound)
}

func TestResultDeleteMark(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 3, ExamType: models.ExamTest, ExamYear: 2025}
	id := seedCohortMark(t, repo, 1, key, 80, passingSubjects(80), "u-1")

	_, cache := testRedis(t)
	svc := NewResultService(repo, cache, time.Minute, testLogger())

	require.NoError(t, svc.DeleteMark(context.Background(), id))
	require.Empty(t, repo.marks)
	require.ErrorIs(t, svc.DeleteMark(context.Background(), id), ErrMarkNotFound)
}

func TestResultStatsComputesAggregates(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 4, ExamType: models.ExamAnnual, ExamYear: 2025}

	top := seedCohortMark(t, repo, 1, key, 90, passingSubjects(90), "u-1")
	repo.marks[top].GPA = 5.0
	repo.marks[top].Grade = "A+"
	repo.marks[top].Result = models.ResultPass
	repo.marks[top].IsPublished = true
	repo.marks[top].Student.Name = "Amina"

	mid := seedCohortMark(t, repo, 2, key, 70, passingSubjects(70), "u-2")
	repo.marks[mid].GPA = 4.0
	repo.marks[mid].Grade = "A"
	repo.marks[mid].Result = models.ResultPass
	repo.marks[mid].IsPublished = true

	bottom := seedCohortMark(t, repo, 3, key, 20, passingSubjects(20), "u-3")
	repo.marks[bottom].GPA = 0.0
	repo.marks[bottom].Grade = "F"
	repo.marks[bottom].Result = models.ResultFail
	repo.marks[bottom].Student.Name = "Rahim"

	svc := NewResultService(repo, nil, time.Minute, testLogger())
	stats, err := svc.Stats(context.Background(), key)
	require.NoError(t, err)

	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Published)
	require.Equal(t, 1, stats.NotPublished)
	require.Equal(t, 2, stats.Passed)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 66.7, stats.PassRate)
	require.Equal(t, 60.0, stats.AveragePercentage)
	require.Equal(t, 3.0, stats.AverageGPA)
	require.Equal(t, map[string]int{"A+": 1, "A": 1, "F": 1}, stats.GradeDistribution)
	require.Equal(t, "Amina", stats.Highest.Student)
	require.Equal(t, "Rahim", stats.Lowest.Student)
	require.False(t, stats.CacheHit)
}

func TestResultStatsCacheRoundTrip(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 5, ExamType: models.ExamAnnual, ExamYear: 2025}
	seedCohortMark(t, repo, 1, key, 90, passingSubjects(90), "u-1")

	mini, cache := testRedis(t)
	svc := NewResultService(repo, cache, time.Minute, testLogger())

	first, err := svc.Stats(context.Background(), key)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.True(t, mini.Exists("marks:stats:5:annual:2025"))

	second, err := svc.Stats(context.Background(), key)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Total, second.Total)

	// Cache expiry falls back to a recomputed response.
	mini.FastForward(2 * time.Minute)
	third, err := svc.Stats(context.Background(), key)
	require.NoError(t, err)
	require.False(t, third.CacheHit)
}

func TestResultStatsEmptyCohortNotCached(t *testing.T) {
	repo := newFakeMarkRepo()
	key := models.CohortKey{ClassID: 6, ExamType: models.ExamMock, ExamYear: 2025}

	mini, cache := testRedis(t)
	svc := NewResultService(repo, cache, time.Minute, testLogger())

	stats, err := svc.Stats(context.Background(), key)
	require.NoError(t, err)
	require.Zero(t, stats.Total)
	require.False(t, mini.Exists("marks:stats:6:mock:2025"))
}

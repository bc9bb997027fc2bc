package grading

import (
	"math"

	"github.com/noah-isme/sms-marks-api/internal/models"
)

// defaultFullMarks guards against subjects configured with no component
// marks at all.
const defaultFullMarks = 100

// Summary is the derived record-level view of a set of subject scores.
//
// Grade is computed from the aggregate percentage, not rolled up from the
// per-subject grades, so the two can legitimately disagree: a student with
// one A+ subject and one F subject may still land on a mid-table overall
// grade. HasFailed is what publication uses for the Pass/Fail result.
type Summary struct {
	Subjects       []models.SubjectScore
	TotalObtained  float64
	TotalFullMarks float64
	Percentage     float64
	GPA            float64
	Grade          string
	HasFailed      bool
}

// ComputeSubject returns a copy of the subject score with every derived field
// filled in. Component marks are clamped at zero; an absent student keeps the
// full-marks total so cohort totals stay comparable, but obtains nothing and
// is graded F regardless of any entered scores.
func ComputeSubject(subject models.SubjectScore) models.SubjectScore {
	full := clampNonNegative(subject.TheoryFullMarks) +
		clampNonNegative(subject.PracticalFullMarks) +
		clampNonNegative(subject.MCQFullMarks)
	if full == 0 {
		full = defaultFullMarks
	}
	subject.TotalFullMarks = full

	if subject.IsAbsent {
		subject.TotalObtained = 0
		subject.Grade = GradeFail
		subject.GradePoint = 0
		return subject
	}

	obtained := clampNonNegative(subject.TheoryObtained) +
		clampNonNegative(subject.PracticalObtained) +
		clampNonNegative(subject.MCQObtained)
	subject.TotalObtained = obtained

	percentage := 0.0
	if full > 0 {
		percentage = obtained / full * 100
	}
	subject.Grade, subject.GradePoint = Classify(percentage)

	return subject
}

// Aggregate applies ComputeSubject to every entry, preserving input order,
// and derives the record-level totals. It is pure and idempotent: feeding the
// returned subjects back in yields the same summary.
func Aggregate(subjects []models.SubjectScore) Summary {
	summary := Summary{Subjects: make([]models.SubjectScore, 0, len(subjects))}

	var gradePointSum float64
	for _, raw := range subjects {
		subject := ComputeSubject(raw)
		summary.Subjects = append(summary.Subjects, subject)

		summary.TotalObtained += subject.TotalObtained
		summary.TotalFullMarks += subject.TotalFullMarks
		gradePointSum += subject.GradePoint
		if subject.Grade == GradeFail {
			summary.HasFailed = true
		}
	}

	if summary.TotalFullMarks > 0 {
		summary.Percentage = round2(summary.TotalObtained / summary.TotalFullMarks * 100)
	}
	if len(summary.Subjects) > 0 {
		summary.GPA = round2(gradePointSum / float64(len(summary.Subjects)))
	}
	summary.Grade, _ = Classify(summary.Percentage)

	return summary
}

func clampNonNegative(value float64) float64 {
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Package grading implements the deterministic mark aggregation rules:
// the percentage-to-grade scale, per-subject totals and the record-level
// summary (percentage, GPA, overall grade).
package grading

// GradeFail is the lowest grade on the scale. Absent subjects always
// receive it.
const GradeFail = "F"

// GradeBand is one row of the grading scale.
type GradeBand struct {
	MinPercentage float64
	Grade         string
	GradePoint    float64
}

// scale is evaluated top-down with strictly descending thresholds; the first
// matching band wins. Percentages below the last band fall through to F.
var scale = []GradeBand{
	{MinPercentage: 80, Grade: "A+", GradePoint: 5.0},
	{MinPercentage: 70, Grade: "A", GradePoint: 4.0},
	{MinPercentage: 60, Grade: "A-", GradePoint: 3.5},
	{MinPercentage: 50, Grade: "B", GradePoint: 3.0},
	{MinPercentage: 40, Grade: "C", GradePoint: 2.0},
	{MinPercentage: 33, Grade: "D", GradePoint: 1.0},
}

// Classify maps a percentage to its letter grade and grade point. It is total
// over all real inputs: negative values and values above 100 are handled like
// any other percentage.
func Classify(percentage float64) (string, float64) {
	for _, band := range scale {
		if percentage >= band.MinPercentage {
			return band.Grade, band.GradePoint
		}
	}
	return GradeFail, 0.0
}

// Scale returns a copy of the grading table, highest band first.
func Scale() []GradeBand {
	bands := make([]GradeBand, len(scale))
	copy(bands, scale)
	return bands
}

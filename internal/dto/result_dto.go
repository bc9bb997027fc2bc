package dto

import "time"

// StatsExtreme names the best or worst record in a cohort.
type StatsExtreme struct {
	Student    string  `json:"student"`
	Percentage float64 `json:"percentage"`
	GPA        float64 `json:"gpa"`
	Grade      string  `json:"grade"`
}

// MarkStatsResponse summarises one cohort for the statistics endpoint.
type MarkStatsResponse struct {
	Total             int            `json:"total"`
	Published         int            `json:"published"`
	NotPublished      int            `json:"not_published"`
	Passed            int            `json:"passed"`
	Failed            int            `json:"failed"`
	PassRate          float64        `json:"pass_rate"`
	AveragePercentage float64        `json:"average_percentage"`
	AverageGPA        float64        `json:"average_gpa"`
	Highest           StatsExtreme   `json:"highest"`
	Lowest            StatsExtreme   `json:"lowest"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	GeneratedAt       time.Time      `json:"generated_at"`
	CacheHit          bool           `json:"cache_hit"`
}

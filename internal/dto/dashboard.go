package dto

import "github.com/noah-isme/academic-planner-api/internal/models"

// Bucket is one bar of a histogram.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LevelRate is the success rate of one level.
type LevelRate struct {
	Level       int     `json:"level"`
	Students    int     `json:"students"`
	SuccessRate float64 `json:"success_rate"`
}

// DashboardResponse aggregates the imported student sample.
type DashboardResponse struct {
	Total            int              `json:"total"`
	GeneralAverage   *float64         `json:"general_average"`
	SuccessRate      float64          `json:"success_rate"`
	ByProgram        []Bucket         `json:"by_program"`
	AverageHistogram []Bucket         `json:"average_histogram"`
	ByLevel          []LevelRate      `json:"by_level"`
	Sample           []models.Student `json:"sample"`
}

// PredictionRequest is a single student profile. Values are clamped to their
// ranges and nil fields take defaults.
type PredictionRequest struct {
	Attendance      *float64 `json:"attendance"`
	StudyHours      *float64 `json:"study_hours"`
	Participation   *float64 `json:"participation"`
	PreviousAverage *float64 `json:"previous_average"`
}

// PredictionResponse is the heuristic outcome.
type PredictionResponse struct {
	EstimatedAverage float64 `json:"estimated_average"`
	SuccessPercent   int     `json:"success_percent"`
	Tier             string  `json:"tier"`
	Message          string  `json:"message"`
}

package dto

import "github.com/noah-isme/academic-planner-api/internal/models"

// RecommendationRequest asks for room and teacher candidates for a course.
type RecommendationRequest struct {
	models.CourseRequest
}

// RoomCandidate is a ranked room. Fits is false for fallback rooms that are
// smaller than the headcount.
type RoomCandidate struct {
	models.Room
	Fits bool `json:"fits"`
}

// TeacherCandidate is a ranked teacher with its score.
type TeacherCandidate struct {
	Teacher models.Teacher `json:"teacher"`
	Score   int            `json:"score"`
}

type RecommendationResponse struct {
	Rooms          []RoomCandidate    `json:"rooms"`
	Teachers       []TeacherCandidate `json:"teachers"`
	Subjects       []string           `json:"subjects"`
	CatalogVersion string             `json:"catalog_version"`
}

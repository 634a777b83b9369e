package dto

import "github.com/noah-isme/academic-planner-api/internal/models"

// ScheduleRequest places a course into a slot. TeacherID and RoomID are optional;
// missing values are resolved from the catalog.
type ScheduleRequest struct {
	models.CourseRequest
	Day           string   `json:"day" validate:"required"`
	Period        string   `json:"period" validate:"required"`
	TeacherID     *int     `json:"teacher_id,omitempty" validate:"omitempty,min=1"`
	RoomID        *int     `json:"room_id,omitempty" validate:"omitempty,min=1"`
	DurationHours *float64 `json:"duration_hours,omitempty" validate:"omitempty,gt=0,lte=12"`
	// Actor is the authenticated user, filled in by the handler.
	Actor string `json:"-"`
}

// ScheduleResult reports a successful placement.
type ScheduleResult struct {
	Entry   models.ScheduledEntry `json:"entry"`
	Teacher models.Teacher        `json:"teacher"`
	Room    models.Room           `json:"room"`
}

// TimetableView is the whole grid in day-major order.
type TimetableView struct {
	Days     []models.Day    `json:"days"`
	Periods  []models.Period `json:"periods"`
	Slots    []models.Slot   `json:"slots"`
	Occupied int             `json:"occupied"`
}

// ExportRequest selects the export format.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResponse carries a signed, expiring download link.
type ExportResponse struct {
	ID          string `json:"id"`
	Format      string `json:"format"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Day is one of the six teaching days.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
)

// Days is the ordered teaching week.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayLabels = map[Day]string{
	Monday:    "Lundi",
	Tuesday:   "Mardi",
	Wednesday: "Mercredi",
	Thursday:  "Jeudi",
	Friday:    "Vendredi",
	Saturday:  "Samedi",
}

// ParseDay accepts English or French day names in any case.
func ParseDay(raw string) (Day, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	for _, d := range Days {
		if key == string(d) || key == strings.ToUpper(dayLabels[d]) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", raw)
}

// Label is the display name used in exports.
func (d Day) Label() string {
	if l, ok := dayLabels[d]; ok {
		return l
	}
	return string(d)
}

// Period is a half-day teaching block.
type Period string

const (
	PeriodAM Period = "AM"
	PeriodPM Period = "PM"
)

// Periods is the ordered list of blocks in a day.
var Periods = []Period{PeriodAM, PeriodPM}

// ParsePeriod accepts AM/PM and morning/afternoon spellings.
func ParsePeriod(raw string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "am", "morning", "matin":
		return PeriodAM, nil
	case "pm", "afternoon", "apres-midi", "après-midi", "soir":
		return PeriodPM, nil
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// Label is the time range of the block.
func (p Period) Label() string {
	switch p {
	case PeriodAM:
		return "07h30 – 11h30"
	case PeriodPM:
		return "12h30 – 16h30"
	}
	return string(p)
}

// SlotKey addresses one cell of the weekly grid.
type SlotKey struct {
	Day    Day    `json:"day"`
	Period Period `json:"period"`
}

func (k SlotKey) String() string {
	return string(k.Day) + "/" + string(k.Period)
}

// SessionType is the teaching format of a course.
type SessionType string

const (
	SessionLecture   SessionType = "CM"
	SessionTutorial  SessionType = "TD"
	SessionPractical SessionType = "TP"
)

// CourseRequest describes a course to place. It is never stored on its own.
type CourseRequest struct {
	Program     string      `json:"program" validate:"required"`
	Level       int         `json:"level" validate:"required,min=1,max=5"`
	Subject     string      `json:"subject" validate:"required"`
	SessionType SessionType `json:"session_type" validate:"required,oneof=CM TD TP"`
	Headcount   int         `json:"headcount" validate:"required,min=1"`
	Date        string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ScheduledEntry is a committed course occupying exactly one slot.
type ScheduledEntry struct {
	ID string `json:"id"`
	CourseRequest
	Day           Day       `json:"day"`
	Period        Period    `json:"period"`
	RoomID        int       `json:"room_id"`
	RoomName      string    `json:"room_name"`
	TeacherID     int       `json:"teacher_id"`
	TeacherName   string    `json:"teacher_name"`
	DurationHours float64   `json:"duration_hours"`
	CommittedAt   time.Time `json:"committed_at"`
	CommittedBy   string    `json:"committed_by,omitempty"`
}

// Slot is one cell of the timetable view; Entry is nil when empty.
type Slot struct {
	SlotKey
	Label string          `json:"label"`
	Entry *ScheduledEntry `json:"entry"`
}

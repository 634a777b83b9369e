package models

import "time"

// ImportKind selects the adapter for an upload.
type ImportKind string

const (
	ImportTeachers ImportKind = "teachers"
	ImportStudents ImportKind = "students"
)

// ImportStatus tracks an asynchronous import.
type ImportStatus string

const (
	ImportQueued    ImportStatus = "QUEUED"
	ImportRunning   ImportStatus = "RUNNING"
	ImportCompleted ImportStatus = "COMPLETED"
	ImportFailed    ImportStatus = "FAILED"
)

// RowIssue explains why a data line was not applied.
type RowIssue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarises one applied import.
type ImportResult struct {
	Kind     ImportKind `json:"kind"`
	Rows     int        `json:"rows"`
	Applied  int        `json:"applied"`
	Created  int        `json:"created"`
	Updated  int        `json:"updated"`
	Skipped  []RowIssue `json:"skipped,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// ImportJob is the state of a queued upload.
type ImportJob struct {
	ID         string        `json:"id"`
	Kind       ImportKind    `json:"kind"`
	FileName   string        `json:"file_name"`
	Status     ImportStatus  `json:"status"`
	Result     *ImportResult `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

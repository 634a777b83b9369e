package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed failure that knows which HTTP status it maps to. Details carries
// structured context such as the remaining hours of a teacher.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so errors.Is works against the
// predefined values below even after Clone or WithDetails.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var other *Error
	if !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code
}

// WithDetails returns a copy with the given key/value merged into Details.
func (e *Error) WithDetails(key string, value any) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

// New constructs an Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrTooLarge     = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large")
)

// Scheduling and import outcomes.
var (
	ErrSlotOccupied             = New("SLOT_OCCUPIED", http.StatusConflict, "slot already occupied")
	ErrUnknownTeacher           = New("UNKNOWN_TEACHER", http.StatusUnprocessableEntity, "teacher not found in catalog")
	ErrUnknownRoom              = New("UNKNOWN_ROOM", http.StatusUnprocessableEntity, "room not found in catalog")
	ErrInsufficientTeacherHours = New("INSUFFICIENT_TEACHER_HOURS", http.StatusConflict, "teacher has insufficient remaining hours")
	ErrRoomCapacityInsufficient = New("ROOM_CAPACITY_INSUFFICIENT", http.StatusUnprocessableEntity, "room capacity below headcount")
	ErrImportEmpty              = New("IMPORT_EMPTY", http.StatusBadRequest, "import file is empty or has no data rows")
	ErrImportNoValidRows        = New("IMPORT_NO_VALID_ROWS", http.StatusUnprocessableEntity, "import file contains no valid rows")
	ErrExportExpired            = New("EXPORT_EXPIRED", http.StatusGone, "download link expired")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

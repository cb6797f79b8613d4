package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"classroombooking/internal/domain"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrClassroomNotFound       = errors.New("classroom not found")
	ErrClassroomInactive       = errors.New("classroom is not active")
	ErrUserNotFound            = errors.New("user not found")
	ErrUserInactive            = errors.New("user is not active")
	ErrOverlapViolation        = errors.New("booking overlaps an existing confirmed booking")
	ErrNotFound                = errors.New("not_found")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrStorageUnavailable      = errors.New("storage unavailable")
	ErrForbidden               = errors.New("forbidden")
)

// ValidationError reports malformed input. It never reaches storage.
type ValidationError struct {
	Message string
	Fields  map[string]string
	cause   error
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func invalidRange(err error) *ValidationError {
	return &ValidationError{Message: "start must be before end", cause: err}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return fmt.Sprintf("validation error: %s (%s)", e.Message, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

const conflictReason = "time slot overlaps with existing booking"

// Conflict names an existing confirmed booking that blocks a requested range.
type Conflict struct {
	BookingID int64     `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason"`
}

func newConflict(b domain.Booking) Conflict {
	return Conflict{
		BookingID: b.ID,
		Start:     b.TimeRange.Start(),
		End:       b.TimeRange.End(),
		Subject:   b.Subject,
		Reason:    conflictReason,
	}
}

// OverlapError is returned when storage rejected a write because the
// resulting confirmed booking would overlap another one in the same
// classroom. Conflicts is filled on a best-effort basis after the rejection.
type OverlapError struct {
	ClassroomID int64
	Range       domain.TimeRange
	// BookingID is the booking being updated, zero for inserts.
	BookingID int64
	Conflicts []Conflict
}

func (e *OverlapError) Error() string {
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("classroom %d: %s overlaps an existing confirmed booking", e.ClassroomID, e.Range)
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, fmt.Sprintf("#%d [%s, %s)", c.BookingID,
			c.Start.Format(time.RFC3339), c.End.Format(time.RFC3339)))
	}
	return fmt.Sprintf("classroom %d: %s overlaps confirmed booking %s",
		e.ClassroomID, e.Range, strings.Join(ids, ", "))
}

func (e *OverlapError) Unwrap() error { return ErrOverlapViolation }

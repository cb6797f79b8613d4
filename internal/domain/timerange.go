package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("invalid time range: start must be before end")

// TimeRange is a half-open interval [start, end) of UTC instants.
// Instants are kept at microsecond precision, the resolution of timestamptz.
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange builds a range from two instants. Both are converted to UTC;
// a zero-offset input is therefore treated as UTC.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	start = normalizeInstant(start)
	end = normalizeInstant(end)
	if !start.Before(end) {
		return TimeRange{}, fmt.Errorf("%w (start=%s, end=%s)", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeRange{start: start, end: end}, nil
}

// DayRange returns [00:00, next day 00:00) for the UTC calendar day of t.
func DayRange(t time.Time) TimeRange {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return TimeRange{start: start, end: start.AddDate(0, 0, 1)}
}

func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func (r TimeRange) Start() time.Time { return r.start }
func (r TimeRange) End() time.Time   { return r.end }

func (r TimeRange) IsZero() bool { return r.start.IsZero() && r.end.IsZero() }

// Overlaps reports whether r and other share at least one instant.
// Ranges that only touch ([09:00,10:00) and [10:00,11:00)) do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}

func (r TimeRange) ContainsInstant(t time.Time) bool {
	return !t.Before(r.start) && t.Before(r.end)
}

func (r TimeRange) Duration() time.Duration {
	return r.end.Sub(r.start)
}

func (r TimeRange) Equal(other TimeRange) bool {
	return r.start.Equal(other.start) && r.end.Equal(other.end)
}

// WithStart returns a copy with a new start bound, re-validated.
func (r TimeRange) WithStart(start time.Time) (TimeRange, error) {
	return NewTimeRange(start, r.end)
}

// WithEnd returns a copy with a new end bound, re-validated.
func (r TimeRange) WithEnd(end time.Time) (TimeRange, error) {
	return NewTimeRange(r.start, end)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}

type timeRangeJSON struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRangeJSON{Start: r.start, End: r.end})
}

func (r *TimeRange) UnmarshalJSON(data []byte) error {
	var raw timeRangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewTimeRange(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

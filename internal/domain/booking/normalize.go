package booking

import (
	"strings"
	"time"

	"classroombooking/internal/domain"
)

// TimeInput is the wire form of a booking time. Callers send either a pair of
// instants or the legacy date plus two wall-clock times. Values without an
// offset are read as UTC.
type TimeInput struct {
	StartDatetime *string `json:"start_datetime,omitempty"`
	EndDatetime   *string `json:"end_datetime,omitempty"`
	BookingDate   *string `json:"booking_date,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

var clockLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

const dateLayout = "2006-01-02"

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func (in TimeInput) hasInstants() bool {
	return present(in.StartDatetime) && present(in.EndDatetime)
}

func (in TimeInput) hasLegacy() bool {
	return present(in.BookingDate) && present(in.StartTime) && present(in.EndTime)
}

func (in TimeInput) hasAnyLegacy() bool {
	return present(in.BookingDate) || present(in.StartTime) || present(in.EndTime)
}

// IsEmpty reports whether no time field was sent at all.
func (in TimeInput) IsEmpty() bool {
	return !present(in.StartDatetime) && !present(in.EndDatetime) && !in.hasAnyLegacy()
}

// Range turns a complete time specification into the canonical TimeRange.
// Direct instants win when both forms are present.
func (in TimeInput) Range() (domain.TimeRange, error) {
	var start, end time.Time
	var err error

	switch {
	case in.hasInstants():
		if start, err = parseInstant("start_datetime", *in.StartDatetime); err != nil {
			return domain.TimeRange{}, err
		}
		if end, err = parseInstant("end_datetime", *in.EndDatetime); err != nil {
			return domain.TimeRange{}, err
		}
	case in.hasLegacy():
		if start, end, err = in.legacyBounds(); err != nil {
			return domain.TimeRange{}, err
		}
	default:
		return domain.TimeRange{}, newValidationError(
			"must provide either (start_datetime, end_datetime) or (booking_date, start_time, end_time)")
	}

	r, err := domain.NewTimeRange(start, end)
	if err != nil {
		return domain.TimeRange{}, invalidRange(err)
	}
	return r, nil
}

// Bounds resolves the time fields of a partial update. A complete legacy
// triple yields both bounds; otherwise each instant is optional on its own.
func (in TimeInput) Bounds() (start, end *time.Time, err error) {
	if in.hasAnyLegacy() && !in.hasInstants() {
		if !in.hasLegacy() {
			return nil, nil, newValidationError("booking_date, start_time and end_time must be sent together")
		}
		s, e, err := in.legacyBounds()
		if err != nil {
			return nil, nil, err
		}
		return &s, &e, nil
	}

	if present(in.StartDatetime) {
		s, err := parseInstant("start_datetime", *in.StartDatetime)
		if err != nil {
			return nil, nil, err
		}
		start = &s
	}
	if present(in.EndDatetime) {
		e, err := parseInstant("end_datetime", *in.EndDatetime)
		if err != nil {
			return nil, nil, err
		}
		end = &e
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, invalidRange(domain.ErrInvalidRange)
	}
	return start, end, nil
}

func (in TimeInput) legacyBounds() (time.Time, time.Time, error) {
	day, err := parseDate("booking_date", *in.BookingDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	startClock, err := parseClock("start_time", *in.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endClock, err := parseClock("end_time", *in.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return combine(day, startClock), combine(day, endClock), nil
}

func parseInstant(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{
		Message: "invalid datetime",
		Fields:  map[string]string{field: "datetime"},
	}
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{
			Message: "invalid date",
			Fields:  map[string]string{field: "date"},
		}
	}
	return t, nil
}

func parseClock(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{
		Message: "invalid time of day",
		Fields:  map[string]string{field: "time"},
	}
}

func combine(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
}

func parsePattern(s string) (domain.RecurringPattern, error) {
	p := domain.RecurringPattern(strings.ToLower(strings.TrimSpace(s)))
	if p != "" && !p.Valid() {
		return "", &ValidationError{
			Message: "recurring_pattern must be daily, weekly or monthly",
			Fields:  map[string]string{"recurring_pattern": "oneof"},
		}
	}
	return p, nil
}

func parseRecurringEnd(s *string) (*time.Time, error) {
	if !present(s) {
		return nil, nil
	}
	d, err := parseDate("recurring_end_date", *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// toDraft normalizes a create request into a booking ready for the store.
func (req CreateBookingRequest) toDraft(userID int64) (*domain.Booking, error) {
	r, err := req.TimeInput.Range()
	if err != nil {
		return nil, err
	}
	pattern, err := parsePattern(req.RecurringPattern)
	if err != nil {
		return nil, err
	}
	recurringEnd, err := parseRecurringEnd(req.RecurringEndDate)
	if err != nil {
		return nil, err
	}

	status := domain.BookingConfirmed
	if req.Status != "" {
		status = domain.BookingStatus(req.Status)
		if status != domain.BookingConfirmed && status != domain.BookingPending {
			return nil, &ValidationError{
				Message: "new bookings are confirmed or pending",
				Fields:  map[string]string{"status": "oneof"},
			}
		}
	}

	return &domain.Booking{
		ClassroomID:      req.ClassroomID,
		UserID:           userID,
		TimeRange:        r,
		Subject:          strings.TrimSpace(req.Subject),
		Description:      req.Description,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: pattern,
		RecurringEndDate: recurringEnd,
		Status:           status,
	}, nil
}

// toPatch normalizes an update request. Time bounds are validated against
// each other here and against the stored row by the store.
func (req UpdateBookingRequest) toPatch() (Patch, error) {
	var p Patch

	start, end, err := req.TimeInput.Bounds()
	if err != nil {
		return Patch{}, err
	}
	p.Start, p.End = start, end

	p.ClassroomID = req.ClassroomID
	if req.Subject != nil {
		s := strings.TrimSpace(*req.Subject)
		p.Subject = &s
	}
	p.Description = req.Description
	p.IsRecurring = req.IsRecurring

	if req.RecurringPattern != nil {
		pattern, err := parsePattern(*req.RecurringPattern)
		if err != nil {
			return Patch{}, err
		}
		p.RecurringPattern = &pattern
	}
	if p.RecurringEndDate, err = parseRecurringEnd(req.RecurringEndDate); err != nil {
		return Patch{}, err
	}
	if req.Status != nil {
		status := domain.BookingStatus(*req.Status)
		if !status.Valid() {
			return Patch{}, &ValidationError{
				Message: "unknown status",
				Fields:  map[string]string{"status": "oneof"},
			}
		}
		p.Status = &status
	}
	return p, nil
}

// dateWindow turns optional start/end calendar days into the instants used by
// list filters: From is start_date 00:00, To is the last microsecond of end_date.
func dateWindow(startDate, endDate string) (from, to *time.Time, err error) {
	if startDate != "" {
		d, err := parseDate("start_date", startDate)
		if err != nil {
			return nil, nil, err
		}
		from = &d
	}
	if endDate != "" {
		d, err := parseDate("end_date", endDate)
		if err != nil {
			return nil, nil, err
		}
		last := d.AddDate(0, 0, 1).Add(-time.Microsecond)
		to = &last
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, newValidationError("end_date must not be before start_date")
	}
	return from, to, nil
}

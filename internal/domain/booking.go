package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// BlocksTime reports whether a booking in this status takes part in the
// no-overlap rule for its classroom.
func (s BookingStatus) BlocksTime() bool {
	return s == BookingConfirmed
}

// CanTransitionTo allows pending->confirmed, pending->cancelled and
// confirmed->cancelled. Keeping the current status is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	}
	return false
}

// RecurringPattern is descriptive only: recurring bookings are stored as a
// single occurrence and never expanded.
type RecurringPattern string

const (
	RecurringDaily   RecurringPattern = "daily"
	RecurringWeekly  RecurringPattern = "weekly"
	RecurringMonthly RecurringPattern = "monthly"
)

func (p RecurringPattern) Valid() bool {
	switch p {
	case RecurringDaily, RecurringWeekly, RecurringMonthly:
		return true
	}
	return false
}

type Booking struct {
	ID               int64            `json:"id"`
	ClassroomID      int64            `json:"classroom_id"`
	UserID           int64            `json:"user_id"`
	TimeRange        TimeRange        `json:"time_range"`
	Subject          string           `json:"subject,omitempty"`
	Description      string           `json:"description,omitempty"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurringPattern RecurringPattern `json:"recurring_pattern,omitempty"`
	RecurringEndDate *time.Time       `json:"recurring_end_date,omitempty"`
	Status           BookingStatus    `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Blocks reports whether b occupies its classroom over r.
func (b *Booking) Blocks(r TimeRange) bool {
	return b.Status.BlocksTime() && b.TimeRange.Overlaps(r)
}

package booking

import (
	"context"
	"time"

	"classroombooking/internal/domain"
)

// Store is the only component that writes bookings. Insert and Update must be
// rejected by storage itself, with an *OverlapError, when the written row is
// confirmed and overlaps another confirmed row of the same classroom.
type Store interface {
	Insert(ctx context.Context, b *domain.Booking) error
	Update(ctx context.Context, id int64, patch Patch) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)

	OverlapReader
	ListByClassroomAndRange(ctx context.Context, classroomID int64, r domain.TimeRange) ([]domain.Booking, error)
	ListByUserAndRange(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Booking, error)
	List(ctx context.Context, q Query) ([]domain.Booking, error)
}

// OverlapReader returns confirmed bookings of a classroom overlapping r,
// ordered by start. excludeID > 0 leaves that booking out.
type OverlapReader interface {
	FindOverlapping(ctx context.Context, classroomID int64, r domain.TimeRange, excludeID int64) ([]domain.Booking, error)
}

// ClassroomLookup returns repository.ErrNotFound for unknown ids.
type ClassroomLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Classroom, error)
}

// UserLookup returns repository.ErrNotFound for unknown ids.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Patch is a normalized partial update. Nil fields are left untouched.
type Patch struct {
	ClassroomID *int64
	Start       *time.Time
	End         *time.Time
	Subject     *string
	Description *string
	IsRecurring *bool
	// An empty pattern clears the stored one.
	RecurringPattern *domain.RecurringPattern
	RecurringEndDate *time.Time
	Status           *domain.BookingStatus
}

func (p Patch) IsEmpty() bool {
	return p.ClassroomID == nil && p.Start == nil && p.End == nil &&
		p.Subject == nil && p.Description == nil && p.IsRecurring == nil &&
		p.RecurringPattern == nil && p.RecurringEndDate == nil && p.Status == nil
}

// Query filters List. Zero ids and nil bounds mean "any". From keeps bookings
// ending at or after it, To keeps bookings starting at or before it.
type Query struct {
	ClassroomID int64
	UserID      int64
	From        *time.Time
	To          *time.Time
	Status      domain.BookingStatus
	Limit       int
	Offset      int
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

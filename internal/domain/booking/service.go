package booking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"classroombooking/internal/domain"
	"classroombooking/internal/pkg/validator"
	"classroombooking/internal/repository"
)

type Service struct {
	store      Store
	classrooms ClassroomLookup
	users      UserLookup
	detector   *ConflictDetector
}

func NewService(store Store, classrooms ClassroomLookup, users UserLookup) *Service {
	return &Service{
		store:      store,
		classrooms: classrooms,
		users:      users,
		detector:   NewConflictDetector(store),
	}
}

func validateRequest(v any) error {
	if fields := validator.Validate(v); fields != nil {
		return &ValidationError{Message: "invalid request", Fields: fields}
	}
	return nil
}

// ensureClassroomBookable rejects unknown and inactive classrooms before any
// write is attempted.
func (s *Service) ensureClassroomBookable(ctx context.Context, classroomID int64) error {
	c, err := s.classrooms.GetByID(ctx, classroomID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: id=%d", ErrClassroomNotFound, classroomID)
	}
	if err != nil {
		return err
	}
	if !c.IsActive {
		return fmt.Errorf("%w: id=%d", ErrClassroomInactive, classroomID)
	}
	return nil
}

// ensureUserActive rejects tokens whose user was removed or disabled after
// the token was issued.
func (s *Service) ensureUserActive(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return fmt.Errorf("%w: id=%d", ErrUserInactive, userID)
	}
	return nil
}

// enrichOverlap fills an *OverlapError with the bookings that caused it. The
// store has already rejected the write; a failed lookup only loses detail.
func (s *Service) enrichOverlap(ctx context.Context, err error) error {
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		return err
	}

	conflicts, lookupErr := s.detector.Conflicts(ctx, overlap.ClassroomID, overlap.Range, overlap.BookingID)
	if lookupErr != nil {
		log.Printf("booking_conflict_lookup_failed classroom_id=%d range=%s err=%v",
			overlap.ClassroomID, overlap.Range, lookupErr)
	} else {
		overlap.Conflicts = conflicts
	}
	log.Printf("booking_conflict classroom_id=%d booking_id=%d range=%s conflicts=%d",
		overlap.ClassroomID, overlap.BookingID, overlap.Range, len(overlap.Conflicts))
	return overlap
}

func (s *Service) CreateBooking(ctx context.Context, userID int64, req CreateBookingRequest) (*domain.Booking, error) {
	if userID <= 0 {
		return nil, newValidationError("user id is required")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	draft, err := req.toDraft(userID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUserActive(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.ensureClassroomBookable(ctx, draft.ClassroomID); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, draft); err != nil {
		return nil, s.enrichOverlap(ctx, err)
	}

	log.Printf("booking_created id=%d classroom_id=%d user_id=%d range=%s status=%s",
		draft.ID, draft.ClassroomID, draft.UserID, draft.TimeRange, draft.Status)
	return draft, nil
}

// UpdateBooking applies a partial update. Moving the booking to another
// classroom validates the target classroom like a create does.
func (s *Service) UpdateBooking(ctx context.Context, id int64, req UpdateBookingRequest) (*domain.Booking, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	patch, err := req.toPatch()
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, id, patch)
}

func (s *Service) applyPatch(ctx context.Context, id int64, patch Patch) (*domain.Booking, error) {
	if patch.IsEmpty() {
		return s.GetBooking(ctx, id)
	}
	if patch.ClassroomID != nil {
		if err := s.ensureClassroomBookable(ctx, *patch.ClassroomID); err != nil {
			return nil, err
		}
	}

	b, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, s.enrichOverlap(ctx, err)
	}

	log.Printf("booking_updated id=%d classroom_id=%d range=%s status=%s",
		b.ID, b.ClassroomID, b.TimeRange, b.Status)
	return b, nil
}

// ConfirmBooking moves a pending booking to confirmed. The store re-runs the
// overlap check as part of the write.
func (s *Service) ConfirmBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	status := domain.BookingConfirmed
	return s.applyPatch(ctx, id, Patch{Status: &status})
}

func (s *Service) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	status := domain.BookingCancelled
	return s.applyPatch(ctx, id, Patch{Status: &status})
}

func (s *Service) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("booking_deleted id=%d", id)
	return nil
}

func (s *Service) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.store.GetByID(ctx, id)
}

// CheckAvailability is a read: a positive answer reserves nothing.
func (s *Service) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	r, err := req.Range()
	if err != nil {
		return nil, err
	}

	conflicts, err := s.detector.Conflicts(ctx, req.ClassroomID, r, 0)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResult{
		ClassroomID: req.ClassroomID,
		Start:       r.Start(),
		End:         r.End(),
		IsAvailable: len(conflicts) == 0,
		Conflicts:   conflicts,
	}, nil
}

func (s *Service) ListBookings(ctx context.Context, f ListFilter) ([]domain.Booking, error) {
	if err := validateRequest(f); err != nil {
		return nil, err
	}
	from, to, err := dateWindow(f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	return s.store.List(ctx, Query{
		ClassroomID: f.ClassroomID,
		UserID:      f.UserID,
		From:        from,
		To:          to,
		Status:      domain.BookingStatus(f.Status),
		Limit:       limit,
		Offset:      f.Offset,
	})
}

func (s *Service) ListUserBookings(ctx context.Context, userID int64, startDate, endDate string) ([]domain.Booking, error) {
	if userID <= 0 {
		return nil, newValidationError("user id is required")
	}
	from, to, err := dateWindow(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id=%d", ErrUserNotFound, userID)
	} else if err != nil {
		return nil, err
	}
	return s.store.ListByUserAndRange(ctx, userID, from, to)
}

// ListClassroomBookingsOnDate returns bookings of any status overlapping the
// UTC calendar day.
func (s *Service) ListClassroomBookingsOnDate(ctx context.Context, classroomID int64, date string) ([]domain.Booking, error) {
	if classroomID <= 0 {
		return nil, newValidationError("classroom id is required")
	}
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.store.ListByClassroomAndRange(ctx, classroomID, domain.DayRange(day))
}

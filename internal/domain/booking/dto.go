package booking

import (
	"time"

	"classroombooking/internal/domain"
)

type CreateBookingRequest struct {
	ClassroomID int64 `json:"classroom_id" validate:"required,gt=0"`
	TimeInput
	Subject          string  `json:"subject" validate:"max=200"`
	Description      string  `json:"description"`
	IsRecurring      bool    `json:"is_recurring"`
	RecurringPattern string  `json:"recurring_pattern" validate:"max=50"`
	RecurringEndDate *string `json:"recurring_end_date" validate:"omitempty,datetime=2006-01-02"`
	Status           string  `json:"status" validate:"omitempty,oneof=confirmed pending"`
}

type UpdateBookingRequest struct {
	ClassroomID *int64 `json:"classroom_id" validate:"omitempty,gt=0"`
	TimeInput
	Subject          *string `json:"subject" validate:"omitempty,max=200"`
	Description      *string `json:"description"`
	IsRecurring      *bool   `json:"is_recurring"`
	RecurringPattern *string `json:"recurring_pattern" validate:"omitempty,max=50"`
	RecurringEndDate *string `json:"recurring_end_date" validate:"omitempty,datetime=2006-01-02"`
	Status           *string `json:"status" validate:"omitempty,oneof=confirmed pending cancelled"`
}

type AvailabilityRequest struct {
	ClassroomID int64 `json:"classroom_id" validate:"required,gt=0"`
	TimeInput
}

type AvailabilityResult struct {
	ClassroomID int64      `json:"classroom_id"`
	Start       time.Time  `json:"start_datetime"`
	End         time.Time  `json:"end_datetime"`
	IsAvailable bool       `json:"is_available"`
	Conflicts   []Conflict `json:"conflicts"`
}

// ListFilter is the query-string form of Query. Dates are UTC calendar days.
type ListFilter struct {
	ClassroomID int64  `form:"classroom_id" validate:"omitempty,gt=0"`
	UserID      int64  `form:"user_id" validate:"omitempty,gt=0"`
	StartDate   string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Status      string `form:"status" validate:"omitempty,oneof=confirmed pending cancelled"`
	Limit       int    `form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset      int    `form:"offset" validate:"min=0"`
}

// BookingResponse also carries the legacy booking_date, start_time and
// end_time read fields, derived from the range.
type BookingResponse struct {
	ID               int64     `json:"id"`
	ClassroomID      int64     `json:"classroom_id"`
	UserID           int64     `json:"user_id"`
	StartDatetime    time.Time `json:"start_datetime"`
	EndDatetime      time.Time `json:"end_datetime"`
	BookingDate      string    `json:"booking_date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	Subject          *string   `json:"subject"`
	Description      *string   `json:"description"`
	IsRecurring      bool      `json:"is_recurring"`
	RecurringPattern *string   `json:"recurring_pattern"`
	RecurringEndDate *string   `json:"recurring_end_date"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewBookingResponse(b *domain.Booking) BookingResponse {
	start, end := b.TimeRange.Start(), b.TimeRange.End()
	out := BookingResponse{
		ID:            b.ID,
		ClassroomID:   b.ClassroomID,
		UserID:        b.UserID,
		StartDatetime: start,
		EndDatetime:   end,
		BookingDate:   start.Format(dateLayout),
		StartTime:     start.Format("15:04:05"),
		EndTime:       end.Format("15:04:05"),
		Subject:       optional(b.Subject),
		Description:   optional(b.Description),
		IsRecurring:   b.IsRecurring,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.RecurringPattern != "" {
		p := string(b.RecurringPattern)
		out.RecurringPattern = &p
	}
	if b.RecurringEndDate != nil {
		d := b.RecurringEndDate.Format(dateLayout)
		out.RecurringEndDate = &d
	}
	return out
}

func NewBookingResponses(list []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, NewBookingResponse(&list[i]))
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package domain

import "time"

// Classroom is owned by the administrative side of the system. Bookings only
// read it to check that the target room exists and is open for reservations.
type Classroom struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Capacity    int       `json:"capacity"`
	Building    string    `json:"building,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

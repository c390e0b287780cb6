package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is a seat-holding reservation. Cancelled bookings are kept for
// history; a member who rebooks gets a new row.
type Booking struct {
	ID          string
	UserID      string
	ClassID     string
	Status      BookingStatus
	BookedAt    time.Time
	CancelledAt *time.Time
}

package domain

// BookingDetail is a member-facing view of a booking with its class.
type BookingDetail struct {
	Booking
	Class Class
}

// WaitlistDetail is a member-facing view of a waitlist entry with its class
// and the number of seats currently free.
type WaitlistDetail struct {
	WaitlistEntry
	Class          Class
	SpotsAvailable int
}

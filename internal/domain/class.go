package domain

import "time"

// Class is a single scheduled class session with a capacity.
// The invariant EndTime > StartTime is enforced at creation.
type Class struct {
	ID           string
	Name         string
	Instructor   string
	Room         string
	StartTime    time.Time
	EndTime      time.Time
	Capacity     int
	Cancelled    bool
	CancelReason string
}

// ClassAvailability is a schedule row with derived occupancy numbers. The
// confirmed count is always computed from booking rows, never stored.
type ClassAvailability struct {
	Class
	Confirmed      int
	SpotsRemaining int
	WaitlistCount  int
}

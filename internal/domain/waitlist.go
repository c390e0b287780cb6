package domain

import "time"

// WaitlistEntry is a queued request for a seat. Position is unique among
// non-promoted entries of a class and stays contiguous (1..k) after every
// promotion or withdrawal. Promoted entries keep their row for history and
// are excluded from renumbering.
type WaitlistEntry struct {
	ID         string
	UserID     string
	ClassID    string
	Position   int
	CreatedAt  time.Time
	PromotedAt *time.Time
}

// Promoted reports whether the entry was already converted into a booking.
func (e WaitlistEntry) Promoted() bool {
	return e.PromotedAt != nil
}

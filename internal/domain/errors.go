package domain

import "errors"

// Validation: malformed input or missing records, surfaced verbatim.
var (
	ErrClassNotFound         = errors.New("class not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrClassNameRequired     = errors.New("class name required")
	ErrInvalidCapacity       = errors.New("invalid capacity")
	ErrInvalidTimeRange      = errors.New("class must end after it starts")
	ErrNoteRequired          = errors.New("a reason note is required")
	ErrInvalidCreditDelta    = errors.New("invalid credit delta")
	ErrInvalidID             = errors.New("invalid id")
)

// Authorization: actor lacks rights over the target. Kept generic so no
// ownership detail leaks to the caller.
var ErrUnauthorized = errors.New("unauthorized")

// Policy violations: expected, user-correctable conditions.
var (
	ErrClassCancelled          = errors.New("this class has been cancelled")
	ErrAlreadyBooked           = errors.New("you are already booked for this class")
	ErrScheduleOverlap         = errors.New("you already have a booking that overlaps this class")
	ErrNoEntitlement           = errors.New("no active membership or credits; please renew to book classes")
	ErrAlreadyWaitlisted       = errors.New("you are already on the waitlist for this class")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrCancellationWindow      = errors.New("too late to cancel; please contact staff")
	ErrEntryAlreadyPromoted    = errors.New("waitlist entry was already promoted")
)

// ErrTxConflict is returned when two requests race for the same class and the
// storage layer reports a serialization failure even after a retry. Callers
// should treat it as transient and retry the request.
var ErrTxConflict = errors.New("conflicting update, please retry")

package domain

import "time"

// SubscriptionWindow is an active unlimited-membership period.
type SubscriptionWindow struct {
	ID      string
	UserID  string
	StartAt time.Time
	EndAt   time.Time
}

// Entitlement answers whether a member may book: either an active unlimited
// window or a positive credit balance.
type Entitlement struct {
	ActiveUnlimited *SubscriptionWindow
	CreditBalance   int
}

func (e Entitlement) Valid() bool {
	return e.ActiveUnlimited != nil || e.CreditBalance > 0
}

// CreditEntry is one row of the append-only credit ledger. Balance is the
// sum of deltas over non-expired entries.
type CreditEntry struct {
	ID        string
	UserID    string
	Delta     int
	Reason    string
	Note      string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// CreditReasonManualAdjust marks ledger entries written by admin
// adjustments, the only writer this service has.
const CreditReasonManualAdjust = "MANUAL_ADJUST"

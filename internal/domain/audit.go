package domain

// AuditRecord is a best-effort trail entry. Writing one must never fail or
// roll back the operation it describes.
type AuditRecord struct {
	Action      string
	EntityType  string
	EntityID    string
	ActorUserID string
	Metadata    map[string]any
}

const (
	AuditBookingCreate    = "BOOKING_CREATE"
	AuditBookingCancel    = "BOOKING_CANCEL"
	AuditWaitlistJoin     = "WAITLIST_JOIN"
	AuditWaitlistPromote  = "WAITLIST_PROMOTE"
	AuditWaitlistWithdraw = "WAITLIST_WITHDRAW"
	AuditClassCreate      = "CLASS_CREATE"
	AuditClassCancel      = "CLASS_CANCEL"
	AuditClassUpdate      = "CLASS_UPDATE"
	AuditCreditAdjust     = "CREDIT_ADJUST"
)

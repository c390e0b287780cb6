package app

import (
	"context"
	"strings"
	"time"

	"github.com/dlight09/vibe-studio/internal/clock"
	"github.com/dlight09/vibe-studio/internal/domain"
)

type EntitlementRepository interface {
	ActiveUnlimitedWindow(ctx context.Context, userID string, now time.Time) (*domain.SubscriptionWindow, error)
	CreditBalance(ctx context.Context, userID string, now time.Time) (int, error)
	InsertCreditEntry(ctx context.Context, e domain.CreditEntry) error
}

// EntitlementService derives a member's right to book from unlimited
// subscription windows and the credit ledger. It is the ledger's
// entitlement provider.
type EntitlementService struct {
	repo  EntitlementRepository
	clock clock.Clock
	audit AuditRecorder
}

func NewEntitlementService(repo EntitlementRepository, clk clock.Clock, opts ...EntitlementServiceOption) *EntitlementService {
	svc := &EntitlementService{
		repo:  repo,
		clock: clk,
		audit: noopAudit{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type EntitlementServiceOption func(*EntitlementService)

func WithEntitlementAuditRecorder(rec AuditRecorder) EntitlementServiceOption {
	return func(s *EntitlementService) {
		if rec != nil {
			s.audit = rec
		}
	}
}

func (s *EntitlementService) Entitlements(ctx context.Context, userID string) (domain.Entitlement, error) {
	if userID == "" {
		return domain.Entitlement{}, domain.ErrInvalidID
	}
	now := s.clock.Now()

	window, err := s.repo.ActiveUnlimitedWindow(ctx, userID, now)
	if err != nil {
		return domain.Entitlement{}, err
	}
	balance, err := s.repo.CreditBalance(ctx, userID, now)
	if err != nil {
		return domain.Entitlement{}, err
	}
	return domain.Entitlement{ActiveUnlimited: window, CreditBalance: balance}, nil
}

func (s *EntitlementService) HasValidEntitlement(ctx context.Context, userID string) (bool, error) {
	ent, err := s.Entitlements(ctx, userID)
	if err != nil {
		return false, err
	}
	return ent.Valid(), nil
}

type AdjustCreditsInput struct {
	UserID string
	Delta  int
	Note   string
}

// AdjustCredits records a manual ledger adjustment. Admin only; a reason
// note is mandatory.
func (s *EntitlementService) AdjustCredits(ctx context.Context, actor domain.Actor, in AdjustCreditsInput) (domain.CreditEntry, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.CreditEntry{}, domain.ErrUnauthorized
	}
	if in.UserID == "" {
		return domain.CreditEntry{}, domain.ErrInvalidID
	}
	if in.Delta == 0 {
		return domain.CreditEntry{}, domain.ErrInvalidCreditDelta
	}
	if len(strings.TrimSpace(in.Note)) < 3 {
		return domain.CreditEntry{}, domain.ErrNoteRequired
	}

	entry := domain.CreditEntry{
		ID:        newID(),
		UserID:    in.UserID,
		Delta:     in.Delta,
		Reason:    domain.CreditReasonManualAdjust,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertCreditEntry(ctx, entry); err != nil {
		return domain.CreditEntry{}, err
	}

	s.audit.Record(ctx, domain.AuditRecord{
		Action:      domain.AuditCreditAdjust,
		EntityType:  "CreditLedgerEntry",
		EntityID:    entry.ID,
		ActorUserID: actor.UserID,
		Metadata:    map[string]any{"user_id": in.UserID, "delta": in.Delta, "note": entry.Note},
	})
	return entry, nil
}

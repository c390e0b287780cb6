package app

import (
	"context"
	"testing"
	"time"

	"github.com/dlight09/vibe-studio/internal/clock"
	"github.com/dlight09/vibe-studio/internal/domain"
)

func TestEntitlementService_HasValidEntitlement(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("active unlimited window entitles", func(t *testing.T) {
		repo := &fakeEntitlementRepo{
			windows: map[string]*domain.SubscriptionWindow{
				"user-a": {ID: "sub-1", UserID: "user-a", StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour)},
			},
		}
		svc := NewEntitlementService(repo, clock.NewFixed(now))

		ok, err := svc.HasValidEntitlement(context.Background(), "user-a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok {
			t.Fatalf("expected entitlement")
		}
	})

	t.Run("positive credit balance entitles", func(t *testing.T) {
		repo := &fakeEntitlementRepo{balances: map[string]int{"user-a": 3}}
		svc := NewEntitlementService(repo, clock.NewFixed(now))

		ok, err := svc.HasValidEntitlement(context.Background(), "user-a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok {
			t.Fatalf("expected entitlement")
		}
	})

	t.Run("no window and zero balance does not entitle", func(t *testing.T) {
		repo := &fakeEntitlementRepo{}
		svc := NewEntitlementService(repo, clock.NewFixed(now))

		ok, err := svc.HasValidEntitlement(context.Background(), "user-a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Fatalf("expected no entitlement")
		}
	})
}

func TestEntitlementService_AdjustCredits(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	admin := domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

	t.Run("admin records a manual adjustment", func(t *testing.T) {
		repo := &fakeEntitlementRepo{}
		svc := NewEntitlementService(repo, clock.NewFixed(now))

		entry, err := svc.AdjustCredits(context.Background(), admin, AdjustCreditsInput{
			UserID: "user-a",
			Delta:  5,
			Note:   "comp for cancelled class",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entry.Reason != domain.CreditReasonManualAdjust {
			t.Fatalf("expected reason %s, got %s", domain.CreditReasonManualAdjust, entry.Reason)
		}
		if len(repo.entries) != 1 {
			t.Fatalf("expected 1 ledger entry, got %d", len(repo.entries))
		}
	})

	t.Run("staff cannot adjust credits", func(t *testing.T) {
		svc := NewEntitlementService(&fakeEntitlementRepo{}, clock.NewFixed(now))

		staff := domain.Actor{UserID: "staff-1", Role: domain.RoleStaff}
		_, err := svc.AdjustCredits(context.Background(), staff, AdjustCreditsInput{
			UserID: "user-a",
			Delta:  5,
			Note:   "nope",
		})
		if err != domain.ErrUnauthorized {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		svc := NewEntitlementService(&fakeEntitlementRepo{}, clock.NewFixed(now))

		_, err := svc.AdjustCredits(context.Background(), admin, AdjustCreditsInput{
			UserID: "user-a",
			Note:   "no change",
		})
		if err != domain.ErrInvalidCreditDelta {
			t.Fatalf("expected ErrInvalidCreditDelta, got %v", err)
		}
	})

	t.Run("rejects missing note", func(t *testing.T) {
		svc := NewEntitlementService(&fakeEntitlementRepo{}, clock.NewFixed(now))

		_, err := svc.AdjustCredits(context.Background(), admin, AdjustCreditsInput{
			UserID: "user-a",
			Delta:  -2,
			Note:   "  ",
		})
		if err != domain.ErrNoteRequired {
			t.Fatalf("expected ErrNoteRequired, got %v", err)
		}
	})
}

type fakeEntitlementRepo struct {
	windows  map[string]*domain.SubscriptionWindow
	balances map[string]int
	entries  []domain.CreditEntry
}

func (f *fakeEntitlementRepo) ActiveUnlimitedWindow(_ context.Context, userID string, _ time.Time) (*domain.SubscriptionWindow, error) {
	return f.windows[userID], nil
}

func (f *fakeEntitlementRepo) CreditBalance(_ context.Context, userID string, _ time.Time) (int, error) {
	return f.balances[userID], nil
}

func (f *fakeEntitlementRepo) InsertCreditEntry(_ context.Context, e domain.CreditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

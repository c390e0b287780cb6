package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dlight09/vibe-studio/internal/domain"
)

type EntitlementRepository struct {
	pool *pgxpool.Pool
}

func NewEntitlementRepository(pool *pgxpool.Pool) *EntitlementRepository {
	return &EntitlementRepository{pool: pool}
}

// ActiveUnlimitedWindow returns the ACTIVE subscription covering now with
// the latest end date, or nil when the user has none.
func (r *EntitlementRepository) ActiveUnlimitedWindow(ctx context.Context, userID string, now time.Time) (*domain.SubscriptionWindow, error) {
	const query = `
SELECT id, user_id, start_at, end_at
FROM member_subscriptions
WHERE user_id = $1 AND status = 'ACTIVE' AND start_at <= $2 AND end_at >= $2
ORDER BY end_at DESC
LIMIT 1`

	var w domain.SubscriptionWindow
	err := r.pool.QueryRow(ctx, query, userID, now).Scan(&w.ID, &w.UserID, &w.StartAt, &w.EndAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("active unlimited window: %w", err)
	}
	return &w, nil
}

// CreditBalance sums deltas over entries that have not expired as of now.
func (r *EntitlementRepository) CreditBalance(ctx context.Context, userID string, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(delta), 0)
FROM credit_ledger
WHERE user_id = $1 AND (expires_at IS NULL OR expires_at >= $2)`

	var balance int
	if err := r.pool.QueryRow(ctx, query, userID, now).Scan(&balance); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	return balance, nil
}

func (r *EntitlementRepository) InsertCreditEntry(ctx context.Context, e domain.CreditEntry) error {
	const stmt = `
INSERT INTO credit_ledger (id, user_id, delta, reason, note, expires_at, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`

	_, err := r.pool.Exec(ctx, stmt, e.ID, e.UserID, e.Delta, e.Reason, e.Note, e.ExpiresAt, e.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("insert credit entry: %w", err)
	}
	return nil
}

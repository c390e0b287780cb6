package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dlight09/vibe-studio/internal/domain"
)

// AuditRepository appends audit rows. It always writes on the pool, never
// inside a caller's transaction, so an audit failure cannot roll back the
// operation it records.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) InsertAuditRecord(ctx context.Context, rec domain.AuditRecord) error {
	const stmt = `
INSERT INTO audit_logs (action, entity_type, entity_id, actor_user_id, metadata)
VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5)`

	var metadata []byte
	if rec.Metadata != nil {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		metadata = b
	}

	if _, err := r.pool.Exec(ctx, stmt, rec.Action, rec.EntityType, rec.EntityID, rec.ActorUserID, metadata); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

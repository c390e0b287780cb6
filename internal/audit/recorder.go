package audit

import (
	"context"
	"log/slog"

	"github.com/dlight09/vibe-studio/internal/domain"
	"github.com/dlight09/vibe-studio/internal/metrics"
)

// Store persists audit records.
type Store interface {
	InsertAuditRecord(ctx context.Context, rec domain.AuditRecord) error
}

// Recorder writes audit records best-effort: failures are logged and counted,
// never returned, so auditing can never block or roll back a booking flow.
type Recorder struct {
	store Store
	log   *slog.Logger
}

func NewRecorder(store Store, log *slog.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

func (r *Recorder) Record(ctx context.Context, rec domain.AuditRecord) {
	if err := r.store.InsertAuditRecord(ctx, rec); err != nil {
		metrics.AuditFailures.Inc()
		r.log.Warn("audit write failed",
			slog.String("action", rec.Action),
			slog.String("entity_type", rec.EntityType),
			slog.String("entity_id", rec.EntityID),
			slog.Any("error", err))
	}
}

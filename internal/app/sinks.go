package app

import (
	"context"

	"github.com/dlight09/vibe-studio/internal/domain"
)

// EventPublisher delivers booking lifecycle events to the notification sink.
// Publishing is best-effort: services log failures and move on.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// AuditRecorder writes audit trail entries. Implementations must contain
// their own failures; Record never reports one.
type AuditRecorder interface {
	Record(ctx context.Context, rec domain.AuditRecord)
}

type noopEvents struct{}

func (noopEvents) Publish(context.Context, string, any) error { return nil }

type noopAudit struct{}

func (noopAudit) Record(context.Context, domain.AuditRecord) {}

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dlight09/vibe-studio/internal/clock"
	"github.com/dlight09/vibe-studio/internal/domain"
	"github.com/dlight09/vibe-studio/internal/events"
	"github.com/dlight09/vibe-studio/internal/metrics"
)

type ScheduleRepository interface {
	CreateClass(ctx context.Context, c domain.Class) error
	GetClass(ctx context.Context, classID string) (domain.Class, error)
	MarkClassCancelled(ctx context.Context, classID, reason string) error
	SetClassCapacity(ctx context.Context, classID string, capacity int) error
	ListSchedule(ctx context.Context, from, to time.Time) ([]domain.ClassAvailability, error)
}

// WaitlistPromoter lets schedule changes that free seats (capacity raises)
// trigger the ledger's promotion pass.
type WaitlistPromoter interface {
	PromoteWaitlist(ctx context.Context, actor domain.Actor, classID string) ([]PromotedEntry, error)
}

// ScheduleService covers staff/admin management of the class schedule.
type ScheduleService struct {
	repo     ScheduleRepository
	promoter WaitlistPromoter
	clock    clock.Clock
	events   EventPublisher
	audit    AuditRecorder
	log      *slog.Logger
}

func NewScheduleService(repo ScheduleRepository, promoter WaitlistPromoter, clk clock.Clock, opts ...ScheduleServiceOption) *ScheduleService {
	svc := &ScheduleService{
		repo:     repo,
		promoter: promoter,
		clock:    clk,
		events:   noopEvents{},
		audit:    noopAudit{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ScheduleServiceOption func(*ScheduleService)

func WithScheduleEventPublisher(pub EventPublisher) ScheduleServiceOption {
	return func(s *ScheduleService) {
		if pub != nil {
			s.events = pub
		}
	}
}

func WithScheduleAuditRecorder(rec AuditRecorder) ScheduleServiceOption {
	return func(s *ScheduleService) {
		if rec != nil {
			s.audit = rec
		}
	}
}

func WithScheduleLogger(log *slog.Logger) ScheduleServiceOption {
	return func(s *ScheduleService) {
		if log != nil {
			s.log = log
		}
	}
}

type CreateClassInput struct {
	Name       string
	Instructor string
	Room       string
	StartTime  time.Time
	Duration   time.Duration
	Capacity   int
}

func (s *ScheduleService) CreateClass(ctx context.Context, actor domain.Actor, in CreateClassInput) (domain.Class, error) {
	if !actor.Role.CanActOnBehalfOfOthers() {
		return domain.Class{}, domain.ErrUnauthorized
	}
	if in.Name == "" {
		return domain.Class{}, domain.ErrClassNameRequired
	}
	if in.Capacity <= 0 {
		return domain.Class{}, domain.ErrInvalidCapacity
	}
	if in.Duration <= 0 {
		return domain.Class{}, domain.ErrInvalidTimeRange
	}

	class := domain.Class{
		ID:         newID(),
		Name:       in.Name,
		Instructor: in.Instructor,
		Room:       in.Room,
		StartTime:  in.StartTime.UTC(),
		EndTime:    in.StartTime.UTC().Add(in.Duration),
		Capacity:   in.Capacity,
	}
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return domain.Class{}, err
	}

	s.audit.Record(ctx, domain.AuditRecord{
		Action:      domain.AuditClassCreate,
		EntityType:  "Class",
		EntityID:    class.ID,
		ActorUserID: actor.UserID,
		Metadata:    map[string]any{"name": class.Name, "capacity": class.Capacity},
	})
	return class, nil
}

// CancelClass flags the session cancelled. Existing bookings are kept; the
// schedule shows the class as cancelled and new bookings are rejected.
func (s *ScheduleService) CancelClass(ctx context.Context, actor domain.Actor, classID, reason string) error {
	if !actor.Role.CanActOnBehalfOfOthers() {
		return domain.ErrUnauthorized
	}
	if classID == "" {
		return domain.ErrInvalidID
	}

	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.Cancelled {
		return domain.ErrClassCancelled
	}
	if err := s.repo.MarkClassCancelled(ctx, classID, reason); err != nil {
		return err
	}

	s.emit(ctx, events.ClassCancelled, map[string]any{
		"class_id": classID,
		"reason":   reason,
	})
	s.audit.Record(ctx, domain.AuditRecord{
		Action:      domain.AuditClassCancel,
		EntityType:  "Class",
		EntityID:    classID,
		ActorUserID: actor.UserID,
		Metadata:    map[string]any{"reason": reason},
	})
	return nil
}

// SetCapacity changes a class's capacity. Raising it frees seats, so the
// waitlist is promoted afterwards.
func (s *ScheduleService) SetCapacity(ctx context.Context, actor domain.Actor, classID string, capacity int) ([]PromotedEntry, error) {
	if !actor.Role.CanActOnBehalfOfOthers() {
		return nil, domain.ErrUnauthorized
	}
	if classID == "" {
		return nil, domain.ErrInvalidID
	}
	if capacity <= 0 {
		return nil, domain.ErrInvalidCapacity
	}

	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetClassCapacity(ctx, classID, capacity); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditRecord{
		Action:      domain.AuditClassUpdate,
		EntityType:  "Class",
		EntityID:    classID,
		ActorUserID: actor.UserID,
		Metadata:    map[string]any{"capacity_from": class.Capacity, "capacity_to": capacity},
	})

	if capacity > class.Capacity {
		return s.promoter.PromoteWaitlist(ctx, actor, classID)
	}
	return nil, nil
}

func (s *ScheduleService) emit(ctx context.Context, key string, payload map[string]any) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		metrics.EventPublishFailures.Inc()
		s.log.Warn("event publish failed", slog.String("key", key), slog.Any("error", err))
	}
}

// ListSchedule returns the bookable schedule with derived availability.
func (s *ScheduleService) ListSchedule(ctx context.Context, from, to time.Time) ([]domain.ClassAvailability, error) {
	if !to.After(from) {
		return nil, domain.ErrInvalidTimeRange
	}
	return s.repo.ListSchedule(ctx, from, to)
}

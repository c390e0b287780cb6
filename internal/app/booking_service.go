package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/dlight09/vibe-studio/internal/clock"
	"github.com/dlight09/vibe-studio/internal/domain"
	"github.com/dlight09/vibe-studio/internal/events"
	"github.com/dlight09/vibe-studio/internal/metrics"
)

// BookingRepository is the storage surface of the booking ledger. Everything
// capacity-sensitive must run inside WithTx after GetClassForUpdate has
// locked the class row; operations on different classes never contend.
type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetClassForUpdate(ctx context.Context, classID string) (domain.Class, error)
	CountConfirmed(ctx context.Context, classID string) (int, error)
	FindConfirmedBooking(ctx context.Context, userID, classID string) (*domain.Booking, error)
	HasOverlappingBooking(ctx context.Context, userID string, start, end time.Time) (bool, error)
	CreateBooking(ctx context.Context, b domain.Booking) error
	GetBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	MarkBookingCancelled(ctx context.Context, bookingID string, at time.Time) error
	NextWaitlistPosition(ctx context.Context, classID string) (int, error)
	CreateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) error
	FindActiveWaitlistEntry(ctx context.Context, userID, classID string) (*domain.WaitlistEntry, error)
	GetWaitlistEntry(ctx context.Context, entryID string) (domain.WaitlistEntry, error)
	ListActiveWaitlist(ctx context.Context, classID string) ([]domain.WaitlistEntry, error)
	MarkEntryPromoted(ctx context.Context, entryID string, at time.Time) error
	DeleteWaitlistEntry(ctx context.Context, entryID string) error
	ReindexWaitlist(ctx context.Context, classID string) error
	ListUserBookings(ctx context.Context, userID string, from time.Time) ([]domain.BookingDetail, error)
	ListUserWaitlist(ctx context.Context, userID string, from time.Time) ([]domain.WaitlistDetail, error)
}

// EntitlementChecker answers whether a member may book at all.
type EntitlementChecker interface {
	HasValidEntitlement(ctx context.Context, userID string) (bool, error)
}

const defaultCancellationWindow = 12 * time.Hour

// BookingService owns the capacity/waitlist state machine per class.
type BookingService struct {
	repo         BookingRepository
	entitlements EntitlementChecker
	clock        clock.Clock
	events       EventPublisher
	audit        AuditRecorder
	log          *slog.Logger
	cancelWindow time.Duration
}

func NewBookingService(repo BookingRepository, entitlements EntitlementChecker, clk clock.Clock, opts ...BookingServiceOption) *BookingService {
	svc := &BookingService{
		repo:         repo,
		entitlements: entitlements,
		clock:        clk,
		events:       noopEvents{},
		audit:        noopAudit{},
		log:          slog.Default(),
		cancelWindow: defaultCancellationWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookingServiceOption func(*BookingService)

// WithCancellationWindow overrides how long before class start a member can
// still cancel.
func WithCancellationWindow(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d >= 0 {
			s.cancelWindow = d
		}
	}
}

func WithEventPublisher(pub EventPublisher) BookingServiceOption {
	return func(s *BookingService) {
		if pub != nil {
			s.events = pub
		}
	}
}

func WithAuditRecorder(rec AuditRecorder) BookingServiceOption {
	return func(s *BookingService) {
		if rec != nil {
			s.audit = rec
		}
	}
}

func WithLogger(log *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if log != nil {
			s.log = log
		}
	}
}

type OutcomeStatus string

const (
	OutcomeBooked     OutcomeStatus = "booked"
	OutcomeWaitlisted OutcomeStatus = "waitlisted"
)

// BookingOutcome is what the presentation layer renders after a booking
// request: either a confirmed seat or a waitlist rank.
type BookingOutcome struct {
	Status   OutcomeStatus
	Message  string
	Position int
	Booking  *domain.Booking
	Entry    *domain.WaitlistEntry
}

// PromotedEntry describes one waitlist entry converted into a booking.
type PromotedEntry struct {
	EntryID   string
	UserID    string
	ClassID   string
	BookingID string
}

// CancelOutcome reports a cancellation and any promotions it triggered.
type CancelOutcome struct {
	Message  string
	Promoted []PromotedEntry
}

// BookClass confirms a seat when capacity allows, otherwise queues the actor
// at the tail of the waitlist. Precondition failures reject without side
// effects, in this order: class missing/cancelled, duplicate booking,
// schedule overlap, duplicate waitlist entry, missing entitlement.
func (s *BookingService) BookClass(ctx context.Context, actor domain.Actor, classID string) (BookingOutcome, error) {
	if classID == "" {
		return BookingOutcome{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var out BookingOutcome

	err := withConflictRetry(func() error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			class, err := s.repo.GetClassForUpdate(txCtx, classID)
			if err != nil {
				return err
			}
			if class.Cancelled {
				return domain.ErrClassCancelled
			}

			if existing, err := s.repo.FindConfirmedBooking(txCtx, actor.UserID, classID); err != nil {
				return err
			} else if existing != nil {
				return domain.ErrAlreadyBooked
			}

			if overlap, err := s.repo.HasOverlappingBooking(txCtx, actor.UserID, class.StartTime, class.EndTime); err != nil {
				return err
			} else if overlap {
				return domain.ErrScheduleOverlap
			}

			if queued, err := s.repo.FindActiveWaitlistEntry(txCtx, actor.UserID, classID); err != nil {
				return err
			} else if queued != nil {
				return domain.ErrAlreadyWaitlisted
			}

			if ok, err := s.entitlements.HasValidEntitlement(txCtx, actor.UserID); err != nil {
				return err
			} else if !ok {
				return domain.ErrNoEntitlement
			}

			confirmed, err := s.repo.CountConfirmed(txCtx, classID)
			if err != nil {
				return err
			}

			if class.Capacity-confirmed > 0 {
				booking := domain.Booking{
					ID:       newID(),
					UserID:   actor.UserID,
					ClassID:  classID,
					Status:   domain.BookingStatusConfirmed,
					BookedAt: now,
				}
				if err := s.repo.CreateBooking(txCtx, booking); err != nil {
					return err
				}
				out = BookingOutcome{
					Status:  OutcomeBooked,
					Message: "Class booked successfully!",
					Booking: &booking,
				}
				return nil
			}

			position, err := s.repo.NextWaitlistPosition(txCtx, classID)
			if err != nil {
				return err
			}
			entry := domain.WaitlistEntry{
				ID:        newID(),
				UserID:    actor.UserID,
				ClassID:   classID,
				Position:  position,
				CreatedAt: now,
			}
			if err := s.repo.CreateWaitlistEntry(txCtx, entry); err != nil {
				return err
			}
			out = BookingOutcome{
				Status:   OutcomeWaitlisted,
				Message:  fmt.Sprintf("Added to waitlist (position %d)", position),
				Position: position,
				Entry:    &entry,
			}
			return nil
		})
	})
	if err != nil {
		return BookingOutcome{}, err
	}

	switch out.Status {
	case OutcomeBooked:
		metrics.BookingsConfirmed.Inc()
		s.emit(ctx, events.BookingCreated, map[string]any{
			"booking_id": out.Booking.ID,
			"user_id":    actor.UserID,
			"class_id":   classID,
		})
		s.audit.Record(ctx, domain.AuditRecord{
			Action:      domain.AuditBookingCreate,
			EntityType:  "Booking",
			EntityID:    out.Booking.ID,
			ActorUserID: actor.UserID,
			Metadata:    map[string]any{"class_id": classID},
		})
	case OutcomeWaitlisted:
		metrics.WaitlistJoins.Inc()
		s.emit(ctx, events.WaitlistJoined, map[string]any{
			"entry_id": out.Entry.ID,
			"user_id":  actor.UserID,
			"class_id": classID,
			"position": out.Position,
		})
		s.audit.Record(ctx, domain.AuditRecord{
			Action:      domain.AuditWaitlistJoin,
			EntityType:  "WaitlistEntry",
			EntityID:    out.Entry.ID,
			ActorUserID: actor.UserID,
			Metadata:    map[string]any{"class_id": classID, "position": out.Position},
		})
	}
	return out, nil
}

// CancelBooking marks a booking CANCELLED (rows are never deleted) and
// promotes the class's waitlist in the same transaction before returning.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, bookingID string) (CancelOutcome, error) {
	if bookingID == "" {
		return CancelOutcome{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var promoted []PromotedEntry
	var booking domain.Booking

	err := withConflictRetry(func() error {
		promoted = nil
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			b, err := s.repo.GetBooking(txCtx, bookingID)
			if err != nil {
				return err
			}
			if b.UserID != actor.UserID && !actor.Role.CanActOnBehalfOfOthers() {
				return domain.ErrUnauthorized
			}
			if b.Status != domain.BookingStatusConfirmed {
				return domain.ErrBookingAlreadyCancelled
			}

			class, err := s.repo.GetClassForUpdate(txCtx, b.ClassID)
			if err != nil {
				return err
			}
			if class.StartTime.Sub(now) < s.cancelWindow && !actor.Role.CanBypassCancellationWindow() {
				return domain.ErrCancellationWindow
			}

			if err := s.repo.MarkBookingCancelled(txCtx, b.ID, now); err != nil {
				return err
			}

			booking = b
			promoted, err = s.promoteLocked(txCtx, class, now)
			return err
		})
	})
	if err != nil {
		return CancelOutcome{}, err
	}

	metrics.BookingsCancelled.Inc()
	s.emit(ctx, events.BookingCancelled, map[string]any{
		"booking_id": booking.ID,
		"user_id":    booking.UserID,
		"class_id":   booking.ClassID,
	})
	s.audit.Record(ctx, domain.AuditRecord{
		Action:      domain.AuditBookingCancel,
		EntityType:  "Booking",
		EntityID:    booking.ID,
		ActorUserID: actor.UserID,
		Metadata:    map[string]any{"class_id": booking.ClassID, "owner_user_id": booking.UserID},
	})
	s.reportPromotions(ctx, actor, promoted)

	return CancelOutcome{Message: "Booking cancelled", Promoted: promoted}, nil
}

// CancelWaitlistEntry removes a queued entry (voluntary withdrawal or staff
// action) and renumbers the remaining queue.
func (s *BookingService) CancelWaitlistEntry(ctx context.Context, actor domain.Actor, entryID string) (CancelOutcome, error) {
	if entryID == "" {
		return CancelOutcome{}, domain.ErrInvalidID
	}

	var entry domain.WaitlistEntry

	err := withConflictRetry(func() error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			e, err := s.repo.GetWaitlistEntry(txCtx, entryID)
			if err != nil {
				return err
			}
			if e.UserID != actor.UserID && !actor.Role.CanActOnBehalfOfOthers() {
				return domain.ErrUnauthorized
			}
			if e.Promoted() {
				return domain.ErrEntryAlreadyPromoted
			}

			// Lock the class row so the delete+reindex serializes with any
			// concurrent promotion for the same class.
			if _, err := s.repo.GetClassForUpdate(txCtx, e.ClassID); err != nil {
				return err
			}
			if err := s.repo.DeleteWaitlistEntry(txCtx, e.ID); err != nil {
				return err
			}
			entry = e
			return s.repo.ReindexWaitlist(txCtx, e.ClassID)
		})
	})
	if err != nil {
		return CancelOutcome{}, err
	}

	s.emit(ctx, events.WaitlistWithdrawn, map[string]any{
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
		"class_id": entry.ClassID,
	})
	s.audit.Record(ctx, domain.AuditRecord{
		Action:      domain.AuditWaitlistWithdraw,
		EntityType:  "WaitlistEntry",
		EntityID:    entry.ID,
		ActorUserID: actor.UserID,
		Metadata:    map[string]any{"class_id": entry.ClassID, "owner_user_id": entry.UserID},
	})

	return CancelOutcome{Message: "Removed from waitlist"}, nil
}

// PromoteWaitlist fills any free seats from the waitlist. It is invoked
// internally after every capacity-freeing event and by staff after raising a
// class's capacity.
func (s *BookingService) PromoteWaitlist(ctx context.Context, actor domain.Actor, classID string) ([]PromotedEntry, error) {
	if classID == "" {
		return nil, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var promoted []PromotedEntry

	err := withConflictRetry(func() error {
		promoted = nil
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			class, err := s.repo.GetClassForUpdate(txCtx, classID)
			if err != nil {
				return err
			}
			promoted, err = s.promoteLocked(txCtx, class, now)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.reportPromotions(ctx, actor, promoted)
	return promoted, nil
}

// promoteLocked runs the promotion algorithm. The caller must hold the class
// row lock. Entries are taken strictly in position order; an entry whose user
// already holds a confirmed seat is left queued and the seat goes to the next
// eligible entry. After any promotion the remaining queue is renumbered to
// contiguous positions by creation time.
func (s *BookingService) promoteLocked(ctx context.Context, class domain.Class, now time.Time) ([]PromotedEntry, error) {
	confirmed, err := s.repo.CountConfirmed(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	spots := class.Capacity - confirmed
	if spots <= 0 {
		return nil, nil
	}

	entries, err := s.repo.ListActiveWaitlist(ctx, class.ID)
	if err != nil {
		return nil, err
	}

	var promoted []PromotedEntry
	for _, entry := range entries {
		if spots <= 0 {
			break
		}

		if existing, err := s.repo.FindConfirmedBooking(ctx, entry.UserID, class.ID); err != nil {
			return nil, err
		} else if existing != nil {
			continue
		}

		booking := domain.Booking{
			ID:       newID(),
			UserID:   entry.UserID,
			ClassID:  class.ID,
			Status:   domain.BookingStatusConfirmed,
			BookedAt: now,
		}
		if err := s.repo.CreateBooking(ctx, booking); err != nil {
			return nil, err
		}
		if err := s.repo.MarkEntryPromoted(ctx, entry.ID, now); err != nil {
			return nil, err
		}

		promoted = append(promoted, PromotedEntry{
			EntryID:   entry.ID,
			UserID:    entry.UserID,
			ClassID:   class.ID,
			BookingID: booking.ID,
		})
		spots--
	}

	if len(promoted) > 0 {
		if err := s.repo.ReindexWaitlist(ctx, class.ID); err != nil {
			return nil, err
		}
	}
	return promoted, nil
}

// ListUserBookings returns the actor's upcoming confirmed bookings.
func (s *BookingService) ListUserBookings(ctx context.Context, actor domain.Actor) ([]domain.BookingDetail, error) {
	return s.repo.ListUserBookings(ctx, actor.UserID, s.clock.Now())
}

// ListUserWaitlist returns the actor's pending waitlist entries for upcoming
// classes.
func (s *BookingService) ListUserWaitlist(ctx context.Context, actor domain.Actor) ([]domain.WaitlistDetail, error) {
	return s.repo.ListUserWaitlist(ctx, actor.UserID, s.clock.Now())
}

func (s *BookingService) reportPromotions(ctx context.Context, actor domain.Actor, promoted []PromotedEntry) {
	for _, p := range promoted {
		metrics.WaitlistPromotions.Inc()
		metrics.BookingsConfirmed.Inc()
		s.emit(ctx, events.WaitlistPromoted, map[string]any{
			"entry_id":   p.EntryID,
			"booking_id": p.BookingID,
			"user_id":    p.UserID,
			"class_id":   p.ClassID,
		})
		s.audit.Record(ctx, domain.AuditRecord{
			Action:      domain.AuditWaitlistPromote,
			EntityType:  "WaitlistEntry",
			EntityID:    p.EntryID,
			ActorUserID: actor.UserID,
			Metadata:    map[string]any{"class_id": p.ClassID, "booking_id": p.BookingID, "user_id": p.UserID},
		})
	}
}

func (s *BookingService) emit(ctx context.Context, key string, payload map[string]any) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		metrics.EventPublishFailures.Inc()
		s.log.Warn("event publish failed", slog.String("key", key), slog.Any("error", err))
	}
}

// withConflictRetry retries the enclosed transaction once when it loses a
// serialization race, then surfaces the conflict to the caller as transient.
func withConflictRetry(fn func() error) error {
	return retry.Do(fn,
		retry.Attempts(2),
		retry.Delay(25*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrTxConflict)
		}),
	)
}

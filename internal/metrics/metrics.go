package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_bookings_confirmed_total",
		Help: "Bookings that landed a confirmed seat, including promotions.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_bookings_cancelled_total",
		Help: "Bookings cancelled by members or staff.",
	})

	WaitlistJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_waitlist_joins_total",
		Help: "Booking requests queued onto a waitlist.",
	})

	WaitlistPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_waitlist_promotions_total",
		Help: "Waitlist entries promoted into confirmed bookings.",
	})

	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_tx_conflicts_total",
		Help: "Transaction serialization conflicts, before retry.",
	})

	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_audit_failures_total",
		Help: "Best-effort audit writes that failed and were discarded.",
	})

	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_event_publish_failures_total",
		Help: "Best-effort event publishes that failed and were discarded.",
	})
)

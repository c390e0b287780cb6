package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dlight09/vibe-studio/internal/app"
	"github.com/dlight09/vibe-studio/internal/audit"
	"github.com/dlight09/vibe-studio/internal/clock"
	"github.com/dlight09/vibe-studio/internal/config"
	"github.com/dlight09/vibe-studio/internal/events"
	"github.com/dlight09/vibe-studio/internal/storage/postgres"
	transporthttp "github.com/dlight09/vibe-studio/internal/transport/http"
	"github.com/dlight09/vibe-studio/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to db", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Error("db ping", slog.Any("error", err))
		os.Exit(1)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	var publisher app.EventPublisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventExchange)
		if err != nil {
			logger.Error("connect to broker", slog.Any("error", err))
			os.Exit(1)
		}
		defer amqpPub.Close()
		publisher = amqpPub
		logger.Info("event publisher connected", slog.String("exchange", cfg.EventExchange))
	} else {
		logger.Warn("AMQP_URL not set, events disabled")
	}

	recorder := audit.NewRecorder(postgres.NewAuditRepository(pool), logger)
	sysClock := clock.NewSystem()

	entitlementRepo := postgres.NewEntitlementRepository(pool)
	entitlementSvc := app.NewEntitlementService(entitlementRepo, sysClock,
		app.WithEntitlementAuditRecorder(recorder),
	)

	bookingRepo := postgres.NewBookingRepository(pool)
	bookingSvc := app.NewBookingService(bookingRepo, entitlementSvc, sysClock,
		app.WithCancellationWindow(cfg.CancellationWindow()),
		app.WithEventPublisher(publisher),
		app.WithAuditRecorder(recorder),
		app.WithLogger(logger),
	)

	scheduleRepo := postgres.NewScheduleRepository(pool)
	scheduleSvc := app.NewScheduleService(scheduleRepo, bookingSvc, sysClock,
		app.WithScheduleEventPublisher(publisher),
		app.WithScheduleAuditRecorder(recorder),
		app.WithScheduleLogger(logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/schedule", transporthttp.HandleSchedule(scheduleSvc, sysClock.Now))
	mux.Handle("/bookings", transporthttp.RequireIdentity(transporthttp.HandleBookings(bookingSvc)))
	mux.Handle("/bookings/", transporthttp.RequireIdentity(transporthttp.HandleCancelBooking(bookingSvc)))
	mux.Handle("/waitlist", transporthttp.RequireIdentity(transporthttp.HandleWaitlist(bookingSvc)))
	mux.Handle("/waitlist/", transporthttp.RequireIdentity(transporthttp.HandleCancelWaitlistEntry(bookingSvc)))
	mux.Handle("/me/entitlements", transporthttp.RequireIdentity(transporthttp.HandleMyEntitlements(entitlementSvc)))
	mux.Handle("/admin/classes", transporthttp.RequireIdentity(transporthttp.HandleCreateClass(scheduleSvc)))
	mux.Handle("/admin/classes/", transporthttp.RequireIdentity(transporthttp.HandleClassAction(scheduleSvc)))
	mux.Handle("/admin/credits", transporthttp.RequireIdentity(transporthttp.HandleAdjustCredits(entitlementSvc)))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(parseCSV(cfg.CORSOrigins), mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", slog.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

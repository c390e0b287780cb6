package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dlight09/vibe-studio/internal/domain"
	"github.com/dlight09/vibe-studio/internal/testutil"
)

func TestScheduleRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewScheduleRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("CreateClass and GetClass round trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		class := domain.Class{
			ID:         uuid.NewString(),
			Name:       "Evening Spin",
			Instructor: "Dana",
			Room:       "Studio 2",
			StartTime:  start,
			EndTime:    end,
			Capacity:   20,
		}
		if err := repo.CreateClass(ctx, class); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetClass(ctx, class.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != class.Name || got.Instructor != "Dana" || got.Capacity != 20 || got.Cancelled {
			t.Fatalf("unexpected class: %+v", got)
		}

		missingID := "00000000-0000-0000-0000-000000000001"
		if _, err := repo.GetClass(ctx, missingID); err != domain.ErrClassNotFound {
			t.Fatalf("expected ErrClassNotFound, got %v", err)
		}
	})

	t.Run("MarkClassCancelled stores the reason", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		classID := testutil.InsertClass(t, ctx, pool, "Evening Spin", start, end, 20)
		if err := repo.MarkClassCancelled(ctx, classID, "instructor sick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetClass(ctx, classID)
		if err != nil {
			t.Fatalf("get class: %v", err)
		}
		if !got.Cancelled || got.CancelReason != "instructor sick" {
			t.Fatalf("unexpected class after cancel: %+v", got)
		}
	})

	t.Run("SetClassCapacity updates the row", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		classID := testutil.InsertClass(t, ctx, pool, "Evening Spin", start, end, 20)
		if err := repo.SetClassCapacity(ctx, classID, 25); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetClass(ctx, classID)
		if err != nil {
			t.Fatalf("get class: %v", err)
		}
		if got.Capacity != 25 {
			t.Fatalf("expected capacity 25, got %d", got.Capacity)
		}
	})

	t.Run("ListSchedule derives occupancy", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		classID := testutil.InsertClass(t, ctx, pool, "Evening Spin", start, end, 2)
		userA := testutil.InsertUser(t, ctx, pool, "a@studio.local", domain.RoleMember)
		userB := testutil.InsertUser(t, ctx, pool, "b@studio.local", domain.RoleMember)

		testutil.InsertBooking(t, ctx, pool, userA, classID, domain.BookingStatusConfirmed)
		testutil.InsertWaitlistEntry(t, ctx, pool, userB, classID, 1, time.Now().UTC())

		classes, err := repo.ListSchedule(ctx, start.Add(-time.Hour), start.Add(time.Hour))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(classes) != 1 {
			t.Fatalf("expected 1 class, got %d", len(classes))
		}
		got := classes[0]
		if got.Confirmed != 1 || got.SpotsRemaining != 1 || got.WaitlistCount != 1 {
			t.Fatalf("unexpected availability: %+v", got)
		}

		// Outside the window.
		classes, err = repo.ListSchedule(ctx, start.Add(2*time.Hour), start.Add(4*time.Hour))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(classes) != 0 {
			t.Fatalf("expected no classes, got %d", len(classes))
		}
	})
}

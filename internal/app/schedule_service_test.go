package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dlight09/vibe-studio/internal/clock"
	"github.com/dlight09/vibe-studio/internal/domain"
)

func TestScheduleService_CreateClass(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	staff := domain.Actor{UserID: "staff-1", Role: domain.RoleStaff}

	makeSvc := func() (*ScheduleService, *fakeScheduleRepo) {
		repo := newFakeScheduleRepo(nil)
		svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now))
		return svc, repo
	}

	t.Run("staff creates a class", func(t *testing.T) {
		svc, repo := makeSvc()

		class, err := svc.CreateClass(context.Background(), staff, CreateClassInput{
			Name:      "Evening Spin",
			StartTime: now.Add(24 * time.Hour),
			Duration:  45 * time.Minute,
			Capacity:  20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if class.ID == "" {
			t.Fatalf("expected class ID to be set")
		}
		if want := now.Add(24*time.Hour + 45*time.Minute); !class.EndTime.Equal(want) {
			t.Fatalf("expected end time %v, got %v", want, class.EndTime)
		}
		if len(repo.classes) != 1 {
			t.Fatalf("expected 1 class in repo, got %d", len(repo.classes))
		}
	})

	t.Run("member cannot create classes", func(t *testing.T) {
		svc, _ := makeSvc()

		member := domain.Actor{UserID: "user-a", Role: domain.RoleMember}
		_, err := svc.CreateClass(context.Background(), member, CreateClassInput{
			Name:      "Evening Spin",
			StartTime: now,
			Duration:  time.Hour,
			Capacity:  20,
		})
		if err != domain.ErrUnauthorized {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		svc, _ := makeSvc()

		_, err := svc.CreateClass(context.Background(), staff, CreateClassInput{
			StartTime: now,
			Duration:  time.Hour,
			Capacity:  20,
		})
		if err != domain.ErrClassNameRequired {
			t.Fatalf("expected ErrClassNameRequired, got %v", err)
		}
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		svc, _ := makeSvc()

		_, err := svc.CreateClass(context.Background(), staff, CreateClassInput{
			Name:      "Evening Spin",
			StartTime: now,
			Duration:  time.Hour,
			Capacity:  0,
		})
		if err != domain.ErrInvalidCapacity {
			t.Fatalf("expected ErrInvalidCapacity, got %v", err)
		}
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		svc, _ := makeSvc()

		_, err := svc.CreateClass(context.Background(), staff, CreateClassInput{
			Name:      "Evening Spin",
			StartTime: now,
			Capacity:  20,
		})
		if err != domain.ErrInvalidTimeRange {
			t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
		}
	})
}

func TestScheduleService_CancelClass(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	staff := domain.Actor{UserID: "staff-1", Role: domain.RoleStaff}

	t.Run("flags the class cancelled", func(t *testing.T) {
		repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
		svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now))

		if err := svc.CancelClass(context.Background(), staff, "class-yoga", "instructor sick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		class := repo.classes["class-yoga"]
		if !class.Cancelled || class.CancelReason != "instructor sick" {
			t.Fatalf("expected cancelled class with reason, got %+v", class)
		}
	})

	t.Run("rejects already cancelled class", func(t *testing.T) {
		class := yogaClass(now, 10)
		class.Cancelled = true
		repo := newFakeScheduleRepo([]domain.Class{class})
		svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now))

		err := svc.CancelClass(context.Background(), staff, "class-yoga", "again")
		if err != domain.ErrClassCancelled {
			t.Fatalf("expected ErrClassCancelled, got %v", err)
		}
	})

	t.Run("member cannot cancel classes", func(t *testing.T) {
		repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
		svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now))

		member := domain.Actor{UserID: "user-a", Role: domain.RoleMember}
		err := svc.CancelClass(context.Background(), member, "class-yoga", "nope")
		if err != domain.ErrUnauthorized {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("publish failure does not fail the cancellation", func(t *testing.T) {
		repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
		pub := &failingPublisher{}
		svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now),
			WithScheduleEventPublisher(pub))

		if err := svc.CancelClass(context.Background(), staff, "class-yoga", "flooded room"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pub.attempts != 1 {
			t.Fatalf("expected 1 publish attempt, got %d", pub.attempts)
		}
		class := repo.classes["class-yoga"]
		if !class.Cancelled {
			t.Fatalf("expected class cancelled despite publish failure, got %+v", class)
		}
	})
}

func TestScheduleService_SetCapacity(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	staff := domain.Actor{UserID: "staff-1", Role: domain.RoleStaff}

	t.Run("raising capacity promotes the waitlist", func(t *testing.T) {
		repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
		promoter := &fakePromoter{}
		svc := NewScheduleService(repo, promoter, clock.NewFixed(now))

		if _, err := svc.SetCapacity(context.Background(), staff, "class-yoga", 15); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo.classes["class-yoga"].Capacity != 15 {
			t.Fatalf("expected capacity 15, got %d", repo.classes["class-yoga"].Capacity)
		}
		if promoter.calls != 1 {
			t.Fatalf("expected 1 promotion pass, got %d", promoter.calls)
		}
	})

	t.Run("lowering capacity does not promote", func(t *testing.T) {
		repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
		promoter := &fakePromoter{}
		svc := NewScheduleService(repo, promoter, clock.NewFixed(now))

		if _, err := svc.SetCapacity(context.Background(), staff, "class-yoga", 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if promoter.calls != 0 {
			t.Fatalf("expected no promotion pass, got %d", promoter.calls)
		}
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
		svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now))

		_, err := svc.SetCapacity(context.Background(), staff, "class-yoga", 0)
		if err != domain.ErrInvalidCapacity {
			t.Fatalf("expected ErrInvalidCapacity, got %v", err)
		}
	})
}

func TestScheduleService_ListSchedule(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeScheduleRepo([]domain.Class{yogaClass(now, 10)})
	svc := NewScheduleService(repo, &fakePromoter{}, clock.NewFixed(now))

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := svc.ListSchedule(context.Background(), now, now.Add(-time.Hour))
		if err != domain.ErrInvalidTimeRange {
			t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
		}
	})

	t.Run("returns availability within range", func(t *testing.T) {
		classes, err := svc.ListSchedule(context.Background(), now, now.Add(72*time.Hour))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(classes) != 1 {
			t.Fatalf("expected 1 class, got %d", len(classes))
		}
	})
}

type fakeScheduleRepo struct {
	classes map[string]domain.Class
}

func newFakeScheduleRepo(classes []domain.Class) *fakeScheduleRepo {
	c := make(map[string]domain.Class)
	for _, class := range classes {
		c[class.ID] = class
	}
	return &fakeScheduleRepo{classes: c}
}

func (f *fakeScheduleRepo) CreateClass(_ context.Context, c domain.Class) error {
	f.classes[c.ID] = c
	return nil
}

func (f *fakeScheduleRepo) GetClass(_ context.Context, classID string) (domain.Class, error) {
	class, ok := f.classes[classID]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return class, nil
}

func (f *fakeScheduleRepo) MarkClassCancelled(_ context.Context, classID, reason string) error {
	class, ok := f.classes[classID]
	if !ok {
		return domain.ErrClassNotFound
	}
	class.Cancelled = true
	class.CancelReason = reason
	f.classes[classID] = class
	return nil
}

func (f *fakeScheduleRepo) SetClassCapacity(_ context.Context, classID string, capacity int) error {
	class, ok := f.classes[classID]
	if !ok {
		return domain.ErrClassNotFound
	}
	class.Capacity = capacity
	f.classes[classID] = class
	return nil
}

func (f *fakeScheduleRepo) ListSchedule(_ context.Context, from, to time.Time) ([]domain.ClassAvailability, error) {
	var out []domain.ClassAvailability
	for _, class := range f.classes {
		if class.StartTime.Before(from) || class.StartTime.After(to) {
			continue
		}
		out = append(out, domain.ClassAvailability{Class: class, SpotsRemaining: class.Capacity})
	}
	return out, nil
}

type failingPublisher struct {
	attempts int
}

func (f *failingPublisher) Publish(context.Context, string, any) error {
	f.attempts++
	return errors.New("broker unavailable")
}

type fakePromoter struct {
	calls    int
	promoted []PromotedEntry
}

func (f *fakePromoter) PromoteWaitlist(_ context.Context, _ domain.Actor, _ string) ([]PromotedEntry, error) {
	f.calls++
	return f.promoted, nil
}

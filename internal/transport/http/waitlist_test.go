package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dlight09/vibe-studio/internal/app"
	"github.com/dlight09/vibe-studio/internal/domain"
)

func TestHandleWaitlist(t *testing.T) {
	t.Parallel()

	member := domain.Actor{UserID: "user-a", Role: domain.RoleMember}
	start := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

	t.Run("lists the caller's queue entries", func(t *testing.T) {
		t.Parallel()
		svc := &stubWaitlistService{
			entries: []domain.WaitlistDetail{
				{
					WaitlistEntry:  domain.WaitlistEntry{ID: "entry-1", ClassID: "c1", Position: 2, CreatedAt: start.Add(-24 * time.Hour)},
					Class:          domain.Class{ID: "c1", Name: "Evening Spin", StartTime: start, EndTime: start.Add(time.Hour), Capacity: 10},
					SpotsAvailable: 0,
				},
			},
		}

		req := asActor(httptest.NewRequest(http.MethodGet, "/waitlist", nil), member)
		rec := httptest.NewRecorder()
		HandleWaitlist(svc).ServeHTTP(rec, req)

		if rec.Result().StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Result().StatusCode)
		}
		if body := rec.Body.String(); !strings.Contains(body, `"position":2`) {
			t.Fatalf("expected position in response, got %q", body)
		}
	})

	t.Run("rejects non-GET", func(t *testing.T) {
		t.Parallel()
		req := asActor(httptest.NewRequest(http.MethodPost, "/waitlist", nil), member)
		rec := httptest.NewRecorder()
		HandleWaitlist(&stubWaitlistService{}).ServeHTTP(rec, req)

		if rec.Result().StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Result().StatusCode)
		}
	})
}

func TestHandleCancelWaitlistEntry(t *testing.T) {
	t.Parallel()

	member := domain.Actor{UserID: "user-a", Role: domain.RoleMember}

	tests := []struct {
		name           string
		path           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "withdrawn",
			path:           "/waitlist/entry-1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			path:           "/waitlist/entry-999",
			serviceErr:     domain.ErrWaitlistEntryNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "already promoted",
			path:           "/waitlist/entry-1",
			serviceErr:     domain.ErrEntryAlreadyPromoted,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "not the owner",
			path:           "/waitlist/entry-1",
			serviceErr:     domain.ErrUnauthorized,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "malformed path",
			path:           "/waitlist/",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubWaitlistService{cancel: app.CancelOutcome{Message: "Removed from waitlist"}, err: tt.serviceErr}
			req := asActor(httptest.NewRequest(http.MethodDelete, tt.path, nil), member)
			rec := httptest.NewRecorder()

			HandleCancelWaitlistEntry(svc).ServeHTTP(rec, req)

			if rec.Result().StatusCode != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Result().StatusCode)
			}
		})
	}
}

type stubWaitlistService struct {
	cancel  app.CancelOutcome
	entries []domain.WaitlistDetail
	err     error
}

func (s *stubWaitlistService) CancelWaitlistEntry(_ context.Context, _ domain.Actor, _ string) (app.CancelOutcome, error) {
	return s.cancel, s.err
}

func (s *stubWaitlistService) ListUserWaitlist(_ context.Context, _ domain.Actor) ([]domain.WaitlistDetail, error) {
	return s.entries, s.err
}

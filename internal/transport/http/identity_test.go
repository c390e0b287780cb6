package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlight09/vibe-studio/internal/domain"
)

func TestRequireIdentity(t *testing.T) {
	t.Parallel()

	t.Run("passes actor through", func(t *testing.T) {
		t.Parallel()
		var got domain.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = actorFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.Header.Set(headerUserID, "user-a")
		req.Header.Set(headerUserRole, "STAFF")
		rec := httptest.NewRecorder()

		RequireIdentity(next).ServeHTTP(rec, req)

		if rec.Result().StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Result().StatusCode)
		}
		if got.UserID != "user-a" || got.Role != domain.RoleStaff {
			t.Fatalf("expected staff actor, got %+v", got)
		}
	})

	t.Run("unknown role downgrades to member", func(t *testing.T) {
		t.Parallel()
		var got domain.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = actorFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.Header.Set(headerUserID, "user-a")
		req.Header.Set(headerUserRole, "SUPERUSER")
		rec := httptest.NewRecorder()

		RequireIdentity(next).ServeHTTP(rec, req)

		if got.Role != domain.RoleMember {
			t.Fatalf("expected member role, got %s", got.Role)
		}
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		t.Parallel()
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		rec := httptest.NewRecorder()

		RequireIdentity(next).ServeHTTP(rec, req)

		if rec.Result().StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Result().StatusCode)
		}
		if called {
			t.Fatalf("expected handler not to run")
		}
	})
}

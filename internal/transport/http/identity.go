package http

import (
	"context"
	"net/http"

	"github.com/dlight09/vibe-studio/internal/domain"
)

// Identity headers set by the upstream session gateway after authentication.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

type actorKey struct{}

// RequireIdentity rejects requests without a gateway-supplied identity and
// stores the resulting actor in the request context.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}
		actor := domain.Actor{
			UserID: userID,
			Role:   domain.ParseRole(r.Header.Get(headerUserRole)),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

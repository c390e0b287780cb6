package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dlight09/vibe-studio/internal/app"
	"github.com/dlight09/vibe-studio/internal/domain"
)

// WaitlistService is the minimal interface the waitlist endpoints need.
type WaitlistService interface {
	CancelWaitlistEntry(ctx context.Context, actor domain.Actor, entryID string) (app.CancelOutcome, error)
	ListUserWaitlist(ctx context.Context, actor domain.Actor) ([]domain.WaitlistDetail, error)
}

// HandleWaitlist serves GET /waitlist, the caller's queued entries.
func HandleWaitlist(svc WaitlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		entries, err := svc.ListUserWaitlist(r.Context(), actor)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]waitlistDetailResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, waitlistDetailResponse{
				ID:             e.ID,
				ClassID:        e.ClassID,
				Position:       e.Position,
				CreatedAt:      e.CreatedAt,
				SpotsAvailable: e.SpotsAvailable,
				Class:          classResponseFrom(e.Class),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleCancelWaitlistEntry serves DELETE /waitlist/{id}.
func HandleCancelWaitlistEntry(svc WaitlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		entryID, ok := parseResourceIDPath(r.URL.Path, "waitlist")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		outcome, err := svc.CancelWaitlistEntry(r.Context(), actor, entryID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cancelOutcomeResponse{Message: outcome.Message})
	}
}

type waitlistDetailResponse struct {
	ID             string        `json:"id"`
	ClassID        string        `json:"class_id"`
	Position       int           `json:"position"`
	CreatedAt      time.Time     `json:"created_at"`
	SpotsAvailable int           `json:"spots_available"`
	Class          classResponse `json:"class"`
}

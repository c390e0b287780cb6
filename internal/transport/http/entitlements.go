package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dlight09/vibe-studio/internal/domain"
)

// EntitlementReader is the minimal interface the entitlement endpoint needs.
type EntitlementReader interface {
	Entitlements(ctx context.Context, userID string) (domain.Entitlement, error)
}

// HandleMyEntitlements serves GET /me/entitlements for the calling member.
func HandleMyEntitlements(svc EntitlementReader) http.HandlerFunc {
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

		ent, err := svc.Entitlements(r.Context(), actor.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := entitlementResponse{
			CreditBalance: ent.CreditBalance,
			CanBook:       ent.Valid(),
		}
		if ent.ActiveUnlimited != nil {
			resp.Unlimited = &subscriptionWindowResponse{
				StartAt: ent.ActiveUnlimited.StartAt,
				EndAt:   ent.ActiveUnlimited.EndAt,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type entitlementResponse struct {
	CreditBalance int                         `json:"credit_balance"`
	CanBook       bool                        `json:"can_book"`
	Unlimited     *subscriptionWindowResponse `json:"unlimited,omitempty"`
}

type subscriptionWindowResponse struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

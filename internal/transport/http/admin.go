package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dlight09/vibe-studio/internal/app"
	"github.com/dlight09/vibe-studio/internal/domain"
)

// ScheduleAdmin is the minimal interface the admin class endpoints need.
type ScheduleAdmin interface {
	CreateClass(ctx context.Context, actor domain.Actor, in app.CreateClassInput) (domain.Class, error)
	CancelClass(ctx context.Context, actor domain.Actor, classID, reason string) error
	SetCapacity(ctx context.Context, actor domain.Actor, classID string, capacity int) ([]app.PromotedEntry, error)
}

// CreditAdjuster is the minimal interface the admin credit endpoint needs.
type CreditAdjuster interface {
	AdjustCredits(ctx context.Context, actor domain.Actor, in app.AdjustCreditsInput) (domain.CreditEntry, error)
}

// HandleCreateClass serves POST /admin/classes.
func HandleCreateClass(svc ScheduleAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		var req createClassRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "start_time must be RFC 3339")
			return
		}

		class, err := svc.CreateClass(r.Context(), actor, app.CreateClassInput{
			Name:       req.Name,
			Instructor: req.Instructor,
			Room:       req.Room,
			StartTime:  start,
			Duration:   time.Duration(req.DurationMinutes) * time.Minute,
			Capacity:   req.Capacity,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(classResponseFrom(class))
	}
}

// HandleClassAction serves POST /admin/classes/{id}/cancel and
// POST /admin/classes/{id}/capacity.
func HandleClassAction(svc ScheduleAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		classID, action, ok := parseClassActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "cancel":
			var req cancelClassRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if err := svc.CancelClass(r.Context(), actor, classID, req.Reason); err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Class cancelled"})
		case "capacity":
			var req setCapacityRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			promoted, err := svc.SetCapacity(r.Context(), actor, classID, req.Capacity)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := setCapacityResponse{Capacity: req.Capacity}
			for _, p := range promoted {
				resp.Promoted = append(resp.Promoted, promotedEntryResponse{
					EntryID:   p.EntryID,
					UserID:    p.UserID,
					BookingID: p.BookingID,
				})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// HandleAdjustCredits serves POST /admin/credits.
func HandleAdjustCredits(svc CreditAdjuster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		var req adjustCreditsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		entry, err := svc.AdjustCredits(r.Context(), actor, app.AdjustCreditsInput{
			UserID: req.UserID,
			Delta:  req.Delta,
			Note:   req.Note,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(creditEntryResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Delta:     entry.Delta,
			Reason:    entry.Reason,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
}

// parseClassActionPath matches /admin/classes/{id}/{action}.
func parseClassActionPath(path string) (classID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "admin" || parts[1] != "classes" || parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

type createClassRequest struct {
	Name            string `json:"name"`
	Instructor      string `json:"instructor"`
	Room            string `json:"room"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Capacity        int    `json:"capacity"`
}

type cancelClassRequest struct {
	Reason string `json:"reason"`
}

type setCapacityRequest struct {
	Capacity int `json:"capacity"`
}

type setCapacityResponse struct {
	Capacity int                     `json:"capacity"`
	Promoted []promotedEntryResponse `json:"promoted,omitempty"`
}

type adjustCreditsRequest struct {
	UserID string `json:"user_id"`
	Delta  int    `json:"delta"`
	Note   string `json:"note"`
}

type creditEntryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

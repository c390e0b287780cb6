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

// BookingLedger is the minimal interface the booking endpoints need.
type BookingLedger interface {
	BookClass(ctx context.Context, actor domain.Actor, classID string) (app.BookingOutcome, error)
	CancelBooking(ctx context.Context, actor domain.Actor, bookingID string) (app.CancelOutcome, error)
	ListUserBookings(ctx context.Context, actor domain.Actor) ([]domain.BookingDetail, error)
}

// HandleBookings serves POST /bookings (book a class) and GET /bookings
// (the caller's upcoming bookings).
func HandleBookings(svc BookingLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req bookClassRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.ClassID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, "class_id is required")
				return
			}

			outcome, err := svc.BookClass(r.Context(), actor, req.ClassID)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			resp := bookingOutcomeResponse{
				Status:  string(outcome.Status),
				Message: outcome.Message,
			}
			if outcome.Booking != nil {
				resp.BookingID = outcome.Booking.ID
			}
			if outcome.Entry != nil {
				resp.EntryID = outcome.Entry.ID
				resp.Position = outcome.Position
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodGet:
			bookings, err := svc.ListUserBookings(r.Context(), actor)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]bookingDetailResponse, 0, len(bookings))
			for _, b := range bookings {
				resp = append(resp, bookingDetailResponse{
					ID:       b.ID,
					ClassID:  b.ClassID,
					Status:   string(b.Status),
					BookedAt: b.BookedAt,
					Class:    classResponseFrom(b.Class),
				})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleCancelBooking serves DELETE /bookings/{id}.
func HandleCancelBooking(svc BookingLedger) http.HandlerFunc {
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

		bookingID, ok := parseResourceIDPath(r.URL.Path, "bookings")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		outcome, err := svc.CancelBooking(r.Context(), actor, bookingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := cancelOutcomeResponse{Message: outcome.Message}
		for _, p := range outcome.Promoted {
			resp.Promoted = append(resp.Promoted, promotedEntryResponse{
				EntryID:   p.EntryID,
				UserID:    p.UserID,
				BookingID: p.BookingID,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// parseResourceIDPath matches /{resource}/{id} and returns the id.
func parseResourceIDPath(path, resource string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != resource || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type bookClassRequest struct {
	ClassID string `json:"class_id"`
}

type bookingOutcomeResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	BookingID string `json:"booking_id,omitempty"`
	EntryID   string `json:"entry_id,omitempty"`
	Position  int    `json:"position,omitempty"`
}

type cancelOutcomeResponse struct {
	Message  string                  `json:"message"`
	Promoted []promotedEntryResponse `json:"promoted,omitempty"`
}

type promotedEntryResponse struct {
	EntryID   string `json:"entry_id"`
	UserID    string `json:"user_id"`
	BookingID string `json:"booking_id"`
}

type bookingDetailResponse struct {
	ID       string        `json:"id"`
	ClassID  string        `json:"class_id"`
	Status   string        `json:"status"`
	BookedAt time.Time     `json:"booked_at"`
	Class    classResponse `json:"class"`
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dlight09/vibe-studio/internal/domain"
)

// defaultScheduleWindow bounds GET /schedule when no range is given.
const defaultScheduleWindow = 14 * 24 * time.Hour

// ScheduleReader is the minimal interface the schedule endpoint needs.
type ScheduleReader interface {
	ListSchedule(ctx context.Context, from, to time.Time) ([]domain.ClassAvailability, error)
}

// HandleSchedule serves GET /schedule?from=&to= with RFC 3339 bounds.
func HandleSchedule(svc ScheduleReader, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		from := now()
		to := from.Add(defaultScheduleWindow)
		if raw := r.URL.Query().Get("from"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "from must be RFC 3339")
				return
			}
			from = t
			to = from.Add(defaultScheduleWindow)
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "to must be RFC 3339")
				return
			}
			to = t
		}

		classes, err := svc.ListSchedule(r.Context(), from, to)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]classAvailabilityResponse, 0, len(classes))
		for _, c := range classes {
			resp = append(resp, classAvailabilityResponse{
				classResponse:  classResponseFrom(c.Class),
				Confirmed:      c.Confirmed,
				SpotsRemaining: c.SpotsRemaining,
				WaitlistCount:  c.WaitlistCount,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type classResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Instructor   string    `json:"instructor,omitempty"`
	Room         string    `json:"room,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Capacity     int       `json:"capacity"`
	Cancelled    bool      `json:"cancelled"`
	CancelReason string    `json:"cancel_reason,omitempty"`
}

func classResponseFrom(c domain.Class) classResponse {
	return classResponse{
		ID:           c.ID,
		Name:         c.Name,
		Instructor:   c.Instructor,
		Room:         c.Room,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		Capacity:     c.Capacity,
		Cancelled:    c.Cancelled,
		CancelReason: c.CancelReason,
	}
}

type classAvailabilityResponse struct {
	classResponse
	Confirmed      int `json:"confirmed"`
	SpotsRemaining int `json:"spots_remaining"`
	WaitlistCount  int `json:"waitlist_count"`
}

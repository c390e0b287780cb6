package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dlight09/vibe-studio/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeInvalidTimeRange   = "invalid_time_range"
	codeInvalidCapacity    = "invalid_capacity"
	codeInvalidCreditDelta = "invalid_credit_delta"
	codeNoteRequired       = "note_required"
	codeClassNameRequired  = "class_name_required"
	codeClassNotFound      = "class_not_found"
	codeBookingNotFound    = "booking_not_found"
	codeEntryNotFound      = "waitlist_entry_not_found"
	codeUserNotFound       = "user_not_found"
	codeUnauthenticated    = "unauthenticated"
	codeForbidden          = "forbidden"
	codeClassCancelled     = "class_cancelled"
	codeAlreadyBooked      = "already_booked"
	codeScheduleOverlap    = "schedule_overlap"
	codeAlreadyWaitlisted  = "already_waitlisted"
	codeNoEntitlement      = "no_entitlement"
	codeAlreadyCancelled   = "booking_already_cancelled"
	codeCancelWindow       = "cancellation_window_closed"
	codeEntryPromoted      = "waitlist_entry_promoted"
	codeTxConflict         = "conflict_retry"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps ledger sentinels onto HTTP statuses and stable codes.
// Authorization failures stay generic so ownership details do not leak.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, codeInvalidTimeRange, err.Error())
	case errors.Is(err, domain.ErrInvalidCapacity):
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case errors.Is(err, domain.ErrInvalidCreditDelta):
		writeError(w, http.StatusBadRequest, codeInvalidCreditDelta, err.Error())
	case errors.Is(err, domain.ErrNoteRequired):
		writeError(w, http.StatusBadRequest, codeNoteRequired, err.Error())
	case errors.Is(err, domain.ErrClassNameRequired):
		writeError(w, http.StatusBadRequest, codeClassNameRequired, err.Error())
	case errors.Is(err, domain.ErrClassNotFound):
		writeError(w, http.StatusNotFound, codeClassNotFound, err.Error())
	case errors.Is(err, domain.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, codeBookingNotFound, err.Error())
	case errors.Is(err, domain.ErrWaitlistEntryNotFound):
		writeError(w, http.StatusNotFound, codeEntryNotFound, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, codeUserNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, codeForbidden, "unauthorized")
	case errors.Is(err, domain.ErrClassCancelled):
		writeError(w, http.StatusConflict, codeClassCancelled, err.Error())
	case errors.Is(err, domain.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, codeAlreadyBooked, err.Error())
	case errors.Is(err, domain.ErrScheduleOverlap):
		writeError(w, http.StatusConflict, codeScheduleOverlap, err.Error())
	case errors.Is(err, domain.ErrAlreadyWaitlisted):
		writeError(w, http.StatusConflict, codeAlreadyWaitlisted, err.Error())
	case errors.Is(err, domain.ErrNoEntitlement):
		writeError(w, http.StatusConflict, codeNoEntitlement, err.Error())
	case errors.Is(err, domain.ErrBookingAlreadyCancelled):
		writeError(w, http.StatusConflict, codeAlreadyCancelled, err.Error())
	case errors.Is(err, domain.ErrCancellationWindow):
		writeError(w, http.StatusConflict, codeCancelWindow, err.Error())
	case errors.Is(err, domain.ErrEntryAlreadyPromoted):
		writeError(w, http.StatusConflict, codeEntryPromoted, err.Error())
	case errors.Is(err, domain.ErrTxConflict):
		writeError(w, http.StatusServiceUnavailable, codeTxConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

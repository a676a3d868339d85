package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docslot/docslot/services/scheduling-service/internal/booking"
	"github.com/docslot/docslot/services/scheduling-service/internal/review"
	"github.com/docslot/docslot/services/scheduling-service/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeDomainError maps the scheduling error taxonomy onto HTTP statuses;
// anything unrecognized is a plain 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrNoOffering):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrDoctorNotAccepting):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrSlotUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrIllegalTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrNotPermitted):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, booking.ErrNotFound), storage.IsNotFound(err):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, review.ErrDuplicateReview):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, review.ErrReservationNotCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, review.ErrInvalidRating):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

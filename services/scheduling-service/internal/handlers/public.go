package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docslot/docslot/services/scheduling-service/internal/booking"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
	"github.com/docslot/docslot/services/scheduling-service/internal/review"
)

// PublicHandler serves the patient-facing endpoints. Patients hold no
// account; a reservation's confirmation code is their only credential.
type PublicHandler struct {
	booking *booking.Service
	reviews *review.Service
	logger  *slog.Logger
}

func NewPublicHandler(bookingSvc *booking.Service, reviewSvc *review.Service, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{booking: bookingSvc, reviews: reviewSvc, logger: logger}
}

type slotItem struct {
	StartTime   string `json:"start_time"`
	Location    string `json:"location,omitempty"`
	Mode        string `json:"mode"`
	SlotMinutes int    `json:"slot_minutes"`
	Remaining   int    `json:"remaining"`
}

type createReservationRequest struct {
	DoctorID     string `json:"doctor_id"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	Location     string `json:"location"`
	Mode         string `json:"mode"`
	Symptoms     string `json:"symptoms"`
	QueryRef     string `json:"query_ref"`
}

type reservationResponse struct {
	ReservationID    string `json:"reservation_id"`
	DoctorID         string `json:"doctor_id"`
	PatientName      string `json:"patient_name"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	Location         string `json:"location,omitempty"`
	Mode             string `json:"mode"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
	Notes            string `json:"notes,omitempty"`
	CancelReason     string `json:"cancel_reason,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type historyItem struct {
	Action    string `json:"action"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status"`
	Actor     string `json:"actor"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

func reservationToResponse(res model.Reservation) reservationResponse {
	return reservationResponse{
		ReservationID:    res.ID,
		DoctorID:         res.DoctorID,
		PatientName:      res.PatientName,
		Date:             res.Date.Format("2006-01-02"),
		StartTime:        model.MinuteOfDay(res.StartMinute),
		Location:         res.Location,
		Mode:             string(res.Mode),
		Status:           string(res.Status),
		ConfirmationCode: res.ConfirmationCode,
		Notes:            res.Notes,
		CancelReason:     res.CancelReason,
		CreatedAt:        res.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func historyToItems(entries []model.HistoryEntry) []historyItem {
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			Action:    e.Action,
			OldStatus: string(e.OldStatus),
			NewStatus: string(e.NewStatus),
			Actor:     e.Actor,
			Note:      e.Note,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items
}

// Slots handles GET /api/v1/public/slots?doctor_id=&date=.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if doctorID == "" || dateStr == "" {
		http.Error(w, "doctor_id and date are required", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusUnprocessableEntity)
		return
	}

	slots, err := h.booking.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			StartTime:   model.MinuteOfDay(s.StartMinute),
			Location:    s.Location,
			Mode:        string(s.Mode),
			SlotMinutes: s.SlotMinutes,
			Remaining:   s.Remaining,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateReservation handles POST /api/v1/public/reservations.
func (h *PublicHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.PatientPhone = strings.TrimSpace(req.PatientPhone)
	if req.DoctorID == "" || req.PatientName == "" || req.PatientPhone == "" {
		http.Error(w, "doctor_id, patient_name, and patient_phone are required", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusUnprocessableEntity)
		return
	}
	startMinute, ok := model.ParseMinuteOfDay(strings.TrimSpace(req.StartTime))
	if !ok {
		http.Error(w, "invalid start_time", http.StatusUnprocessableEntity)
		return
	}
	mode := model.ConsultMode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = model.ModeInPerson
	}

	res, err := h.booking.CreateReservation(r.Context(), booking.CreateRequest{
		DoctorID:     req.DoctorID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		Date:         date,
		StartMinute:  startMinute,
		Location:     strings.TrimSpace(req.Location),
		Mode:         mode,
		Symptoms:     strings.TrimSpace(req.Symptoms),
		QueryRef:     strings.TrimSpace(req.QueryRef),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservationToResponse(res))
}

// Lookup handles GET /api/v1/public/reservations/lookup?code=.
func (h *PublicHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	res, history, err := h.booking.GetReservationByCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Reservation reservationResponse `json:"reservation"`
		History     []historyItem       `json:"history"`
	}{reservationToResponse(res), historyToItems(history)})
}

type patientCancelRequest struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Cancel handles POST /api/v1/public/reservations/cancel.
func (h *PublicHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req patientCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	res, err := h.booking.PatientCancel(r.Context(), req.Code, strings.TrimSpace(req.Reason))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

type addReviewRequest struct {
	Code   string `json:"code"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type addReviewResponse struct {
	ReviewID string `json:"review_id"`
	Rating   int    `json:"rating"`
}

// AddReview handles POST /api/v1/public/reviews.
func (h *PublicHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	rev, err := h.reviews.Add(r.Context(), req.Code, req.Rating, strings.TrimSpace(req.Text))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addReviewResponse{ReviewID: rev.ID, Rating: rev.Rating})
}

// DoctorRating handles GET /api/v1/public/doctors/rating?doctor_id=.
func (h *PublicHandler) DoctorRating(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	if doctorID == "" {
		http.Error(w, "doctor_id is required", http.StatusBadRequest)
		return
	}

	summary, err := h.reviews.DoctorSummary(r.Context(), doctorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

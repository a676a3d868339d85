package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/docslot/docslot/libs/auth"
	"github.com/docslot/docslot/services/scheduling-service/internal/booking"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
	"github.com/docslot/docslot/services/scheduling-service/internal/review"
	"github.com/docslot/docslot/services/scheduling-service/internal/storage"
)

// DoctorHandler serves the authenticated doctor and admin endpoints. The
// bearer token's subject is the doctor id; admins act on any doctor by
// passing doctor_id explicitly.
type DoctorHandler struct {
	booking   *booking.Service
	reviews   *review.Service
	doctors   *storage.DoctorRepository
	templates *storage.TemplateRepository
	timeOff   *storage.TimeOffRepository
	jwtSecret string
	logger    *slog.Logger
}

func NewDoctorHandler(
	bookingSvc *booking.Service,
	reviewSvc *review.Service,
	doctors *storage.DoctorRepository,
	templates *storage.TemplateRepository,
	timeOff *storage.TimeOffRepository,
	jwtSecret string,
	logger *slog.Logger,
) *DoctorHandler {
	return &DoctorHandler{
		booking:   bookingSvc,
		reviews:   reviewSvc,
		doctors:   doctors,
		templates: templates,
		timeOff:   timeOff,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func (h *DoctorHandler) authenticate(r *http.Request) (*auth.Claims, bool) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, false
	}
	claims, err := auth.ParseAndVerifyHS256(token, h.jwtSecret)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func actorFromClaims(claims *auth.Claims) booking.Actor {
	if claims.Role == auth.RoleAdmin {
		return booking.Actor{Kind: booking.ActorAdmin, ID: claims.Sub}
	}
	return booking.Actor{Kind: booking.ActorDoctor, ID: claims.Sub}
}

// targetDoctor resolves which doctor a request operates on. Doctors always
// operate on themselves; admins name the doctor in the request.
func targetDoctor(claims *auth.Claims, explicit string) string {
	if claims.Role == auth.RoleAdmin && explicit != "" {
		return explicit
	}
	return claims.Sub
}

type transitionRequest struct {
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason"`
	Notes         string `json:"notes"`
}

func (h *DoctorHandler) transition(w http.ResponseWriter, r *http.Request, action booking.Action) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	if req.ReservationID == "" {
		http.Error(w, "reservation_id is required", http.StatusBadRequest)
		return
	}

	note := strings.TrimSpace(req.Notes)
	if action == booking.ActionCancel {
		note = strings.TrimSpace(req.Reason)
	}

	res, err := h.booking.Transition(r.Context(), actorFromClaims(claims), req.ReservationID, action, note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationToResponse(res))
}

// Confirm handles POST /api/v1/reservations/confirm.
func (h *DoctorHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, booking.ActionConfirm)
}

// Cancel handles POST /api/v1/reservations/cancel.
func (h *DoctorHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, booking.ActionCancel)
}

// Complete handles POST /api/v1/reservations/complete.
func (h *DoctorHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, booking.ActionComplete)
}

// ListReservations handles GET /api/v1/reservations?from=&limit=.
func (h *DoctorHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doctorID := targetDoctor(claims, strings.TrimSpace(r.URL.Query().Get("doctor_id")))
	from := model.DateOnly(time.Now().UTC())
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusUnprocessableEntity)
			return
		}
		from = parsed
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	reservations, err := h.booking.ListDoctorReservations(r.Context(), doctorID, from, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		items = append(items, reservationToResponse(res))
	}
	writeJSON(w, http.StatusOK, items)
}

type templateRequest struct {
	DoctorID    string `json:"doctor_id"`
	Weekday     int    `json:"weekday"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	SlotMinutes int    `json:"slot_minutes"`
	MaxPerSlot  int    `json:"max_per_slot"`
	Location    string `json:"location"`
	Mode        string `json:"mode"`
}

type templateItem struct {
	TemplateID  string `json:"template_id"`
	Weekday     int    `json:"weekday"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	SlotMinutes int    `json:"slot_minutes"`
	MaxPerSlot  int    `json:"max_per_slot"`
	Active      bool   `json:"active"`
	Location    string `json:"location,omitempty"`
	Mode        string `json:"mode"`
}

// Templates handles POST (create) and GET (list) on /api/v1/templates.
func (h *DoctorHandler) Templates(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listTemplates(w, r, claims)
	case http.MethodPost:
		h.createTemplate(w, r, claims)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DoctorHandler) createTemplate(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	startMinute, okStart := model.ParseMinuteOfDay(strings.TrimSpace(req.StartTime))
	endMinute, okEnd := model.ParseMinuteOfDay(strings.TrimSpace(req.EndTime))
	if !okStart || !okEnd || endMinute <= startMinute {
		http.Error(w, "invalid start_time/end_time window", http.StatusUnprocessableEntity)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "weekday must be 0 (Sunday) through 6", http.StatusUnprocessableEntity)
		return
	}
	if req.SlotMinutes <= 0 {
		http.Error(w, "slot_minutes must be positive", http.StatusUnprocessableEntity)
		return
	}
	if req.MaxPerSlot <= 0 {
		req.MaxPerSlot = 1
	}
	mode := model.ConsultMode(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = model.ModeInPerson
	}
	if !mode.Valid() {
		http.Error(w, "invalid mode", http.StatusUnprocessableEntity)
		return
	}

	tpl := model.AvailabilityTemplate{
		DoctorID:    targetDoctor(claims, strings.TrimSpace(req.DoctorID)),
		Weekday:     req.Weekday,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		SlotMinutes: req.SlotMinutes,
		MaxPerSlot:  req.MaxPerSlot,
		Active:      true,
		Location:    strings.TrimSpace(req.Location),
		Mode:        mode,
	}
	id, err := h.templates.Create(r.Context(), &tpl)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"template_id": id})
}

func (h *DoctorHandler) listTemplates(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	doctorID := targetDoctor(claims, strings.TrimSpace(r.URL.Query().Get("doctor_id")))
	templates, err := h.templates.ListByDoctor(r.Context(), doctorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]templateItem, 0, len(templates))
	for _, tpl := range templates {
		items = append(items, templateItem{
			TemplateID:  tpl.ID,
			Weekday:     tpl.Weekday,
			StartTime:   model.MinuteOfDay(tpl.StartMinute),
			EndTime:     model.MinuteOfDay(tpl.EndMinute),
			SlotMinutes: tpl.SlotMinutes,
			MaxPerSlot:  tpl.MaxPerSlot,
			Active:      tpl.Active,
			Location:    tpl.Location,
			Mode:        string(tpl.Mode),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type templateActiveRequest struct {
	DoctorID   string `json:"doctor_id"`
	TemplateID string `json:"template_id"`
	Active     bool   `json:"active"`
}

// SetTemplateActive handles POST /api/v1/templates/active. Deactivating a
// template stops new bookings without touching existing reservations.
func (h *DoctorHandler) SetTemplateActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req templateActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TemplateID = strings.TrimSpace(req.TemplateID)
	if req.TemplateID == "" {
		http.Error(w, "template_id is required", http.StatusBadRequest)
		return
	}

	doctorID := targetDoctor(claims, strings.TrimSpace(req.DoctorID))
	if err := h.templates.SetActive(r.Context(), doctorID, req.TemplateID, req.Active); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template_id": req.TemplateID, "active": req.Active})
}

type deleteTemplateRequest struct {
	DoctorID   string `json:"doctor_id"`
	TemplateID string `json:"template_id"`
}

// DeleteTemplate handles POST /api/v1/templates/delete. Existing
// reservations are untouched; only future slot generation stops.
func (h *DoctorHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req deleteTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TemplateID = strings.TrimSpace(req.TemplateID)
	if req.TemplateID == "" {
		http.Error(w, "template_id is required", http.StatusBadRequest)
		return
	}

	doctorID := targetDoctor(claims, strings.TrimSpace(req.DoctorID))
	if err := h.templates.Delete(r.Context(), doctorID, req.TemplateID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"template_id": req.TemplateID})
}

type timeOffRequest struct {
	DoctorID  string `json:"doctor_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type timeOffItem struct {
	TimeOffID string `json:"time_off_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason,omitempty"`
}

// TimeOff handles POST (create) and GET (list) on /api/v1/timeoff.
func (h *DoctorHandler) TimeOff(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listTimeOff(w, r, claims)
	case http.MethodPost:
		h.createTimeOff(w, r, claims)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DoctorHandler) createTimeOff(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req timeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	start, errStart := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.StartDate), time.UTC)
	end, errEnd := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.EndDate), time.UTC)
	if errStart != nil || errEnd != nil || end.Before(start) {
		http.Error(w, "invalid start_date/end_date range", http.StatusUnprocessableEntity)
		return
	}

	off := model.TimeOff{
		DoctorID:  targetDoctor(claims, strings.TrimSpace(req.DoctorID)),
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(req.Reason),
	}
	id, err := h.timeOff.Create(r.Context(), &off)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"time_off_id": id})
}

func (h *DoctorHandler) listTimeOff(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	doctorID := targetDoctor(claims, strings.TrimSpace(r.URL.Query().Get("doctor_id")))
	from := model.DateOnly(time.Now().UTC())
	offs, err := h.timeOff.ListByDoctor(r.Context(), doctorID, from)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items := make([]timeOffItem, 0, len(offs))
	for _, off := range offs {
		items = append(items, timeOffItem{
			TimeOffID: off.ID,
			StartDate: off.StartDate.Format("2006-01-02"),
			EndDate:   off.EndDate.Format("2006-01-02"),
			Reason:    off.Reason,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type deleteTimeOffRequest struct {
	DoctorID  string `json:"doctor_id"`
	TimeOffID string `json:"time_off_id"`
}

// DeleteTimeOff handles POST /api/v1/timeoff/delete.
func (h *DoctorHandler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req deleteTimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TimeOffID = strings.TrimSpace(req.TimeOffID)
	if req.TimeOffID == "" {
		http.Error(w, "time_off_id is required", http.StatusBadRequest)
		return
	}

	doctorID := targetDoctor(claims, strings.TrimSpace(req.DoctorID))
	if err := h.timeOff.Delete(r.Context(), doctorID, req.TimeOffID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"time_off_id": req.TimeOffID})
}

type acceptingRequest struct {
	DoctorID  string `json:"doctor_id"`
	Accepting bool   `json:"accepting"`
}

// SetAccepting handles POST /api/v1/doctors/accepting.
func (h *DoctorHandler) SetAccepting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req acceptingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	doctorID := targetDoctor(claims, strings.TrimSpace(req.DoctorID))
	if err := h.doctors.SetAccepting(r.Context(), doctorID, req.Accepting); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctor_id": doctorID, "accepting": req.Accepting})
}

type respondReviewRequest struct {
	DoctorID string `json:"doctor_id"`
	ReviewID string `json:"review_id"`
	Response string `json:"response"`
}

// RespondToReview handles POST /api/v1/reviews/respond.
func (h *DoctorHandler) RespondToReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req respondReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReviewID = strings.TrimSpace(req.ReviewID)
	req.Response = strings.TrimSpace(req.Response)
	if req.ReviewID == "" || req.Response == "" {
		http.Error(w, "review_id and response are required", http.StatusBadRequest)
		return
	}

	doctorID := targetDoctor(claims, strings.TrimSpace(req.DoctorID))
	if err := h.reviews.Respond(r.Context(), doctorID, req.ReviewID, req.Response); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"review_id": req.ReviewID})
}

type reviewVisibilityRequest struct {
	ReviewID string `json:"review_id"`
	Visible  bool   `json:"visible"`
}

// SetReviewVisibility handles POST /api/v1/admin/reviews/visibility. Admin
// only; moderation hides a review from the public aggregate.
func (h *DoctorHandler) SetReviewVisibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != auth.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req reviewVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReviewID = strings.TrimSpace(req.ReviewID)
	if req.ReviewID == "" {
		http.Error(w, "review_id is required", http.StatusBadRequest)
		return
	}

	if err := h.reviews.SetVisibility(r.Context(), req.ReviewID, req.Visible); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review_id": req.ReviewID, "visible": req.Visible})
}

type createDoctorRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// CreateDoctor handles POST /api/v1/admin/doctors. Admin only.
func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != auth.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req createDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	id, err := h.doctors.Create(r.Context(), req.Name, strings.TrimSpace(req.Specialty))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"doctor_id": id})
}

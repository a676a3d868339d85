package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docslot/docslot/libs/auth"
	"github.com/docslot/docslot/services/scheduling-service/internal/booking"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReservationToResponse(t *testing.T) {
	confirmed := time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)
	res := model.Reservation{
		ID:               "res-1",
		DoctorID:         "doc-1",
		PatientName:      "Anika Rahman",
		Date:             time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		StartMinute:      570,
		Location:         "Dhanmondi",
		Mode:             model.ModeInPerson,
		Status:           model.StatusConfirmed,
		ConfirmationCode: "ABCD2345",
		CreatedAt:        confirmed,
	}

	out := reservationToResponse(res)
	if out.Date != "2026-03-09" {
		t.Fatalf("date = %q", out.Date)
	}
	if out.StartTime != "09:30" {
		t.Fatalf("start_time = %q", out.StartTime)
	}
	if out.Status != "confirmed" || out.ConfirmationCode != "ABCD2345" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestTargetDoctor(t *testing.T) {
	doctor := &auth.Claims{Sub: "doc-1", Role: auth.RoleDoctor}
	admin := &auth.Claims{Sub: "admin-1", Role: auth.RoleAdmin}

	if got := targetDoctor(doctor, "doc-2"); got != "doc-1" {
		t.Fatalf("doctor must not target others, got %q", got)
	}
	if got := targetDoctor(admin, "doc-2"); got != "doc-2" {
		t.Fatalf("admin explicit target = %q", got)
	}
	if got := targetDoctor(admin, ""); got != "admin-1" {
		t.Fatalf("admin default target = %q", got)
	}
}

func TestPublicSlots_RequiresParams(t *testing.T) {
	h := NewPublicHandler(nil, nil, testLogger())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots", nil)
	w := httptest.NewRecorder()
	h.Slots(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing params: status = %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?doctor_id=doc-1&date=tuesday", nil)
	w = httptest.NewRecorder()
	h.Slots(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad date: status = %d", w.Code)
	}
}

func TestPublicCreate_RejectsBadInput(t *testing.T) {
	h := NewPublicHandler(nil, nil, testLogger())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/public/reservations", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.CreateReservation(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("broken json: status = %d", w.Code)
	}

	body := `{"doctor_id":"doc-1","patient_name":"A","patient_phone":"017","date":"2026-03-09","start_time":"25:99"}`
	r = httptest.NewRequest(http.MethodPost, "/api/v1/public/reservations", strings.NewReader(body))
	w = httptest.NewRecorder()
	h.CreateReservation(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad start_time: status = %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/public/reservations", nil)
	w = httptest.NewRecorder()
	h.CreateReservation(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: status = %d", w.Code)
	}
}

func TestDoctorEndpoints_RequireToken(t *testing.T) {
	h := NewDoctorHandler(nil, nil, nil, nil, nil, "secret", testLogger())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/confirm", strings.NewReader(`{"reservation_id":"res-1"}`))
	w := httptest.NewRecorder()
	h.Confirm(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/v1/reservations/confirm", strings.NewReader(`{"reservation_id":"res-1"}`))
	r.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	h.Confirm(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", w.Code)
	}
}

func TestCreateDoctor_AdminOnly(t *testing.T) {
	secret := "secret"
	h := NewDoctorHandler(nil, nil, nil, nil, nil, secret, testLogger())

	token, err := auth.SignHS256(auth.Claims{
		Sub:  "doc-1",
		Role: auth.RoleDoctor,
		Exp:  time.Now().Add(time.Hour).Unix(),
		Iat:  time.Now().Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/admin/doctors", strings.NewReader(`{"name":"Dr. X"}`))
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.CreateDoctor(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("doctor role on admin route: status = %d", w.Code)
	}
}

func TestWriteDomainErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{booking.ErrInvalidDate, http.StatusUnprocessableEntity},
		{booking.ErrNoOffering, http.StatusUnprocessableEntity},
		{booking.ErrDoctorNotAccepting, http.StatusUnprocessableEntity},
		{booking.ErrSlotUnavailable, http.StatusConflict},
		{booking.ErrIllegalTransition, http.StatusConflict},
		{booking.ErrNotPermitted, http.StatusForbidden},
		{booking.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		writeDomainError(w, tc.err)
		if w.Code != tc.want {
			t.Fatalf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

package dispatch

import (
	"strings"
	"testing"
)

func sampleEvent() ReservationEvent {
	return ReservationEvent{
		ReservationID:    "res-1",
		PatientName:      "Anika Rahman",
		PatientPhone:     "01712345678",
		Date:             "2026-03-09",
		StartMinute:      570,
		Location:         "Dhanmondi",
		ConfirmationCode: "ABCD2345",
	}
}

func TestRenderMessage_Created(t *testing.T) {
	msg := RenderMessage("scheduling.reservation.created.v1", sampleEvent())
	if !strings.Contains(msg, "2026-03-09 09:30") {
		t.Fatalf("missing date/time: %q", msg)
	}
	if !strings.Contains(msg, "ABCD2345") {
		t.Fatalf("missing confirmation code: %q", msg)
	}
}

func TestRenderMessage_ConfirmedIncludesLocation(t *testing.T) {
	msg := RenderMessage("scheduling.reservation.confirmed.v1", sampleEvent())
	if !strings.Contains(msg, "Dhanmondi") {
		t.Fatalf("missing location: %q", msg)
	}

	evt := sampleEvent()
	evt.Location = ""
	msg = RenderMessage("scheduling.reservation.confirmed.v1", evt)
	if strings.Contains(msg, "Location") {
		t.Fatalf("remote visit must not mention location: %q", msg)
	}
}

func TestRenderMessage_CancelledWithReason(t *testing.T) {
	evt := sampleEvent()
	evt.CancelReason = "doctor unavailable"
	msg := RenderMessage("scheduling.reservation.cancelled.v1", evt)
	if !strings.Contains(msg, "doctor unavailable") {
		t.Fatalf("missing cancel reason: %q", msg)
	}
}

func TestRenderMessage_UnknownTopic(t *testing.T) {
	if msg := RenderMessage("scheduling.other.v1", sampleEvent()); msg != "" {
		t.Fatalf("unknown topic should render empty, got %q", msg)
	}
}

package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

func pendingReservation() *model.Reservation {
	return &model.Reservation{
		ID:               "res-1",
		DoctorID:         "doc-1",
		Status:           model.StatusPending,
		ConfirmationCode: "ABCD2345",
	}
}

func doctorActor() Actor { return Actor{Kind: ActorDoctor, ID: "doc-1"} }

func TestApply_FullLifecycle(t *testing.T) {
	res := pendingReservation()
	now := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	entry, err := Apply(res, ActionConfirm, doctorActor(), "", now)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if res.Status != model.StatusConfirmed || res.ConfirmedAt == nil {
		t.Fatalf("confirm did not update reservation: %+v", res)
	}
	if entry.OldStatus != model.StatusPending || entry.NewStatus != model.StatusConfirmed {
		t.Fatalf("unexpected history entry: %+v", entry)
	}

	later := now.Add(time.Hour)
	entry, err = Apply(res, ActionComplete, doctorActor(), "follow up in 2 weeks", later)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if res.Status != model.StatusCompleted || res.CompletedAt == nil {
		t.Fatalf("complete did not update reservation: %+v", res)
	}
	if res.Notes != "follow up in 2 weeks" {
		t.Fatalf("complete should store doctor notes, got %q", res.Notes)
	}
	if entry.Actor != "doctor:doc-1" {
		t.Fatalf("unexpected actor string: %q", entry.Actor)
	}
}

func TestApply_CancelStoresReason(t *testing.T) {
	res := pendingReservation()
	now := time.Now().UTC()

	if _, err := Apply(res, ActionCancel, Actor{Kind: ActorPatient, ID: res.ConfirmationCode}, "cannot make it", now); err != nil {
		t.Fatalf("patient cancel failed: %v", err)
	}
	if res.Status != model.StatusCancelled || res.CancelledAt == nil {
		t.Fatalf("cancel did not update reservation: %+v", res)
	}
	if res.CancelReason != "cannot make it" {
		t.Fatalf("expected cancel reason stored, got %q", res.CancelReason)
	}
}

func TestApply_CancelFromConfirmed(t *testing.T) {
	res := pendingReservation()
	now := time.Now().UTC()
	if _, err := Apply(res, ActionConfirm, doctorActor(), "", now); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := Apply(res, ActionCancel, doctorActor(), "emergency", now); err != nil {
		t.Fatalf("doctor cancel of confirmed failed: %v", err)
	}
}

func TestApply_TerminalStatesAreFinal(t *testing.T) {
	now := time.Now().UTC()

	cancelled := pendingReservation()
	if _, err := Apply(cancelled, ActionCancel, doctorActor(), "", now); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	for _, action := range []Action{ActionConfirm, ActionCancel, ActionComplete} {
		if _, err := Apply(cancelled, action, doctorActor(), "", now); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("%s on cancelled: expected ErrIllegalTransition, got %v", action, err)
		}
	}

	completed := pendingReservation()
	if _, err := Apply(completed, ActionConfirm, doctorActor(), "", now); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := Apply(completed, ActionComplete, doctorActor(), "", now); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	for _, action := range []Action{ActionConfirm, ActionCancel, ActionComplete} {
		if _, err := Apply(completed, action, doctorActor(), "", now); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("%s on completed: expected ErrIllegalTransition, got %v", action, err)
		}
	}
}

func TestApply_RepeatedTransitionRejected(t *testing.T) {
	res := pendingReservation()
	now := time.Now().UTC()
	if _, err := Apply(res, ActionConfirm, doctorActor(), "", now); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := Apply(res, ActionConfirm, doctorActor(), "", now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("second confirm: expected ErrIllegalTransition, got %v", err)
	}
}

func TestApply_CompleteRequiresConfirmFirst(t *testing.T) {
	res := pendingReservation()
	if _, err := Apply(res, ActionComplete, doctorActor(), "", time.Now().UTC()); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("complete on pending: expected ErrIllegalTransition, got %v", err)
	}
}

func TestApply_ActorPermissions(t *testing.T) {
	now := time.Now().UTC()

	res := pendingReservation()
	if _, err := Apply(res, ActionConfirm, Actor{Kind: ActorPatient}, "", now); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("patient confirm: expected ErrNotPermitted, got %v", err)
	}
	if _, err := Apply(res, ActionComplete, Actor{Kind: ActorPatient}, "", now); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("patient complete: expected ErrNotPermitted, got %v", err)
	}

	otherDoctor := Actor{Kind: ActorDoctor, ID: "doc-2"}
	if _, err := Apply(res, ActionConfirm, otherDoctor, "", now); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("foreign doctor confirm: expected ErrNotPermitted, got %v", err)
	}

	if _, err := Apply(res, ActionConfirm, Actor{Kind: ActorAdmin, ID: "ops"}, "", now); err != nil {
		t.Fatalf("admin confirm should be allowed: %v", err)
	}
}

func TestCreatedEntry(t *testing.T) {
	res := pendingReservation()
	now := time.Now().UTC()
	entry := CreatedEntry(res, Actor{Kind: ActorPatient}, now)
	if entry.Action != "create" || entry.NewStatus != model.StatusPending || entry.OldStatus != "" {
		t.Fatalf("unexpected created entry: %+v", entry)
	}
}

package booking

import (
	"time"

	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

// Action is a requested state-machine move.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"

	// actionCreate only appears in history rows for the initial insert.
	actionCreate Action = "create"
)

// Apply validates and performs one transition on the reservation in place:
// pending → confirmed → completed, with cancelled reachable from pending or
// confirmed. Terminal states admit nothing, and re-issuing an applied
// transition is rejected rather than silently absorbed, so every accepted
// call produces exactly one history row.
//
// The note lands in the field the action owns: doctor notes on complete,
// the cancellation reason on cancel.
func Apply(res *model.Reservation, action Action, actor Actor, note string, now time.Time) (model.HistoryEntry, error) {
	if err := authorize(res, action, actor); err != nil {
		return model.HistoryEntry{}, err
	}
	if res.Status.Terminal() {
		return model.HistoryEntry{}, ErrIllegalTransition
	}

	old := res.Status
	switch action {
	case ActionConfirm:
		if old != model.StatusPending {
			return model.HistoryEntry{}, ErrIllegalTransition
		}
		res.Status = model.StatusConfirmed
		res.ConfirmedAt = &now
	case ActionCancel:
		res.Status = model.StatusCancelled
		res.CancelledAt = &now
		res.CancelReason = note
	case ActionComplete:
		if old != model.StatusConfirmed {
			return model.HistoryEntry{}, ErrIllegalTransition
		}
		res.Status = model.StatusCompleted
		res.CompletedAt = &now
		res.Notes = note
	default:
		return model.HistoryEntry{}, ErrIllegalTransition
	}

	return model.HistoryEntry{
		ReservationID: res.ID,
		Action:        string(action),
		OldStatus:     old,
		NewStatus:     res.Status,
		Actor:         actor.String(),
		Note:          note,
		CreatedAt:     now,
	}, nil
}

// CreatedEntry is the history row written alongside the initial insert.
func CreatedEntry(res *model.Reservation, actor Actor, now time.Time) model.HistoryEntry {
	return model.HistoryEntry{
		ReservationID: res.ID,
		Action:        string(actionCreate),
		OldStatus:     "",
		NewStatus:     res.Status,
		Actor:         actor.String(),
		CreatedAt:     now,
	}
}

func authorize(res *model.Reservation, action Action, actor Actor) error {
	switch actor.Kind {
	case ActorAdmin:
		return nil
	case ActorDoctor:
		// Doctors act only on their own reservations.
		if actor.ID != res.DoctorID {
			return ErrNotPermitted
		}
		return nil
	case ActorPatient:
		// Patients may only cancel; ownership is proven by possession of
		// the confirmation code, checked by the lookup that loaded res.
		if action != ActionCancel {
			return ErrNotPermitted
		}
		return nil
	default:
		return ErrNotPermitted
	}
}

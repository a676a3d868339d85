package booking

import "errors"

// Domain errors returned to callers. Handlers map these onto HTTP statuses;
// they are the complete rejection vocabulary of the engine.
var (
	ErrInvalidDate        = errors.New("date is in the past or beyond the booking horizon")
	ErrNoOffering         = errors.New("doctor has no offering for that day")
	ErrSlotUnavailable    = errors.New("slot is unavailable")
	ErrDoctorNotAccepting = errors.New("doctor is not accepting reservations")
	ErrIllegalTransition  = errors.New("illegal reservation state transition")
	ErrNotPermitted       = errors.New("actor is not permitted to perform this action")
	ErrNotFound           = errors.New("reservation not found")
)

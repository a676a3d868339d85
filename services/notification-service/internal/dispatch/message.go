package dispatch

import "fmt"

// ReservationEvent mirrors the payload the scheduling service publishes for
// reservation lifecycle topics.
type ReservationEvent struct {
	ReservationID    string `json:"reservation_id"`
	DoctorID         string `json:"doctor_id"`
	PatientName      string `json:"patient_name"`
	PatientPhone     string `json:"patient_phone"`
	Date             string `json:"date"`
	StartMinute      int    `json:"start_minute"`
	Location         string `json:"location"`
	Mode             string `json:"mode"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
	CancelReason     string `json:"cancel_reason"`
	OccurredAt       string `json:"occurred_at"`
}

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// RenderMessage builds the patient-facing SMS for one lifecycle topic.
// Unknown topics yield an empty string, which callers treat as "nothing to
// send".
func RenderMessage(topic string, evt ReservationEvent) string {
	when := evt.Date + " " + clock(evt.StartMinute)
	switch topic {
	case "scheduling.reservation.created.v1":
		return fmt.Sprintf("Your appointment request for %s is received. Confirmation code: %s.", when, evt.ConfirmationCode)
	case "scheduling.reservation.confirmed.v1":
		msg := fmt.Sprintf("Your appointment on %s is confirmed.", when)
		if evt.Location != "" {
			msg += " Location: " + evt.Location + "."
		}
		return msg
	case "scheduling.reservation.cancelled.v1":
		msg := fmt.Sprintf("Your appointment on %s has been cancelled.", when)
		if evt.CancelReason != "" {
			msg += " Reason: " + evt.CancelReason + "."
		}
		return msg
	case "scheduling.reservation.completed.v1":
		return fmt.Sprintf("Thank you for your visit on %s. You can leave a review with code %s.", when, evt.ConfirmationCode)
	}
	return ""
}

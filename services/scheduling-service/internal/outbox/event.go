package outbox

import (
	"encoding/json"
	"time"

	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	TopicReservationCreated   = "scheduling.reservation.created.v1"
	TopicReservationConfirmed = "scheduling.reservation.confirmed.v1"
	TopicReservationCancelled = "scheduling.reservation.cancelled.v1"
	TopicReservationCompleted = "scheduling.reservation.completed.v1"
)

type reservationPayload struct {
	ReservationID    string `json:"reservation_id"`
	DoctorID         string `json:"doctor_id"`
	PatientName      string `json:"patient_name"`
	PatientPhone     string `json:"patient_phone"`
	Date             string `json:"date"`
	StartMinute      int    `json:"start_minute"`
	Location         string `json:"location,omitempty"`
	Mode             string `json:"mode"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
	CancelReason     string `json:"cancel_reason,omitempty"`
	OccurredAt       string `json:"occurred_at"`
}

// ReservationEvent builds the outbox envelope for a lifecycle transition.
func ReservationEvent(topic string, res *model.Reservation, now time.Time) (Event, error) {
	payload, err := json.Marshal(reservationPayload{
		ReservationID:    res.ID,
		DoctorID:         res.DoctorID,
		PatientName:      res.PatientName,
		PatientPhone:     res.PatientPhone,
		Date:             res.Date.Format("2006-01-02"),
		StartMinute:      res.StartMinute,
		Location:         res.Location,
		Mode:             string(res.Mode),
		Status:           string(res.Status),
		ConfirmationCode: res.ConfirmationCode,
		CancelReason:     res.CancelReason,
		OccurredAt:       now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "reservation",
		AggregateID:   res.ID,
		EventType:     topic,
		Payload:       payload,
	}, nil
}

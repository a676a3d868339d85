package model

import "time"

// ConsultMode is how a visit takes place.
type ConsultMode string

const (
	ModeInPerson ConsultMode = "in_person"
	ModeRemote   ConsultMode = "remote"
)

func (m ConsultMode) Valid() bool {
	return m == ModeInPerson || m == ModeRemote
}

// ReservationStatus is the lifecycle state of a reservation. Reservations
// are never deleted; the status carries the lifecycle.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Active reports whether the reservation still holds slot capacity.
func (s ReservationStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no further transition is legal.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Doctor struct {
	ID        string
	Name      string
	Specialty string
	Accepting bool
	CreatedAt time.Time
}

// AvailabilityTemplate is a doctor's recurring weekly offering. Start and
// end are minutes of day; weekday follows time.Weekday (Sunday=0). A doctor
// may have several templates on the same weekday (different locations).
type AvailabilityTemplate struct {
	ID          string
	DoctorID    string
	Weekday     int
	StartMinute int
	EndMinute   int
	SlotMinutes int
	MaxPerSlot  int
	Active      bool
	Location    string
	Mode        ConsultMode
	CreatedAt   time.Time
}

// TimeOff suppresses all of a doctor's slots on dates within
// [StartDate, EndDate], inclusive. Dates are UTC midnights.
type TimeOff struct {
	ID        string
	DoctorID  string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
	CreatedAt time.Time
}

// Covers reports whether date (a UTC midnight) falls inside the range.
func (t TimeOff) Covers(date time.Time) bool {
	return !date.Before(t.StartDate) && !date.After(t.EndDate)
}

type Reservation struct {
	ID               string
	DoctorID         string
	PatientName      string
	PatientPhone     string
	Date             time.Time // UTC midnight
	StartMinute      int
	Location         string
	Mode             ConsultMode
	Symptoms         string
	QueryRef         string
	Status           ReservationStatus
	ConfirmationCode string
	Notes            string
	CancelReason     string
	CreatedAt        time.Time
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
	CompletedAt      *time.Time
}

// HistoryEntry is one append-only audit record per state transition.
type HistoryEntry struct {
	ID            int64
	ReservationID string
	Action        string
	OldStatus     ReservationStatus
	NewStatus     ReservationStatus
	Actor         string
	Note          string
	CreatedAt     time.Time
}

type Review struct {
	ID             string
	ReservationID  string
	Rating         int
	Text           string
	Visible        bool
	DoctorResponse string
	CreatedAt      time.Time
}

// DateOnly truncates t to a UTC midnight.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MinuteOf returns t's minute-of-day offset.
func MinuteOf(t time.Time) int {
	t = t.UTC()
	return t.Hour()*60 + t.Minute()
}

// MinuteOfDay renders a minute offset as HH:MM.
func MinuteOfDay(m int) string {
	return time.Date(2000, 1, 1, 0, m, 0, 0, time.UTC).Format("15:04")
}

// ParseMinuteOfDay parses HH:MM into a minute offset.
func ParseMinuteOfDay(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

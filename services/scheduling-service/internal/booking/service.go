package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/docslot/docslot/services/scheduling-service/internal/availability"
	"github.com/docslot/docslot/services/scheduling-service/internal/confirmation"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
	"github.com/docslot/docslot/services/scheduling-service/internal/outbox"
	"github.com/docslot/docslot/services/scheduling-service/internal/storage"
)

const (
	// DefaultHorizonDays bounds how far ahead slots are offered and
	// reservations accepted.
	DefaultHorizonDays = 60

	createCodeRetries = 3
)

type Service struct {
	doctors      DoctorStore
	templates    TemplateStore
	timeOff      TimeOffStore
	reservations ReservationStore
	outbox       EventStore
	codes        *confirmation.Generator
	logger       *slog.Logger
	horizonDays  int
}

func NewService(
	doctors DoctorStore,
	templates TemplateStore,
	timeOff TimeOffStore,
	reservations ReservationStore,
	outboxRepo EventStore,
	codes *confirmation.Generator,
	logger *slog.Logger,
	horizonDays int,
) *Service {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Service{
		doctors:      doctors,
		templates:    templates,
		timeOff:      timeOff,
		reservations: reservations,
		outbox:       outboxRepo,
		codes:        codes,
		logger:       logger,
		horizonDays:  horizonDays,
	}
}

// withinWindow reports whether date (a UTC midnight) falls between today
// and today+horizon inclusive.
func withinWindow(date, today time.Time, horizonDays int) bool {
	if date.Before(today) {
		return false
	}
	return !date.After(today.AddDate(0, 0, horizonDays))
}

// GetAvailableSlots computes the bookable slots for one doctor on one date.
// A date outside the booking window is rejected; a doctor with no active
// templates for that weekday yields an empty list.
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]availability.Slot, error) {
	now := time.Now().UTC()
	today := model.DateOnly(now)
	if !withinWindow(date, today, s.horizonDays) {
		return nil, ErrInvalidDate
	}

	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		return nil, mapStorageErr(err)
	}

	templates, err := s.templates.ListActiveForDay(ctx, doctorID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return []availability.Slot{}, nil
	}

	timeOff, err := s.timeOff.ListCovering(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	occupancy, err := s.reservations.Occupancy(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	nowMinute := -1
	if date.Equal(today) {
		nowMinute = model.MinuteOf(now)
	}
	slots := availability.DaySlots(date, templates, timeOff, occupancy, nowMinute)
	if slots == nil {
		slots = []availability.Slot{}
	}
	return slots, nil
}

// CreateRequest carries the patient-facing fields of a new reservation.
type CreateRequest struct {
	DoctorID     string
	PatientName  string
	PatientPhone string
	Date         time.Time // UTC midnight
	StartMinute  int
	Location     string
	Mode         model.ConsultMode
	Symptoms     string
	QueryRef     string
}

// CreateReservation books a slot. The capacity check runs inside a
// transaction that first locks the doctor's templates for the weekday, so
// concurrent requests for the same slot serialize and at most MaxPerSlot
// of them succeed.
func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) (model.Reservation, error) {
	now := time.Now().UTC()
	today := model.DateOnly(now)
	if !withinWindow(req.Date, today, s.horizonDays) {
		return model.Reservation{}, ErrInvalidDate
	}
	if req.Date.Equal(today) && req.StartMinute <= model.MinuteOf(now) {
		return model.Reservation{}, ErrInvalidDate
	}
	if !req.Mode.Valid() {
		return model.Reservation{}, ErrInvalidDate
	}

	doctor, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return model.Reservation{}, mapStorageErr(err)
	}
	if !doctor.Accepting {
		return model.Reservation{}, ErrDoctorNotAccepting
	}

	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	templates, err := s.templates.LockActiveForDay(ctx, tx, req.DoctorID, int(req.Date.Weekday()))
	if err != nil {
		return model.Reservation{}, err
	}
	if len(templates) == 0 {
		return model.Reservation{}, ErrNoOffering
	}

	tpl, ok := availability.MatchTemplate(templates, req.StartMinute, req.Location, req.Mode)
	if !ok {
		return model.Reservation{}, ErrSlotUnavailable
	}

	covered, err := s.timeOff.CoversInTx(ctx, tx, req.DoctorID, req.Date)
	if err != nil {
		return model.Reservation{}, err
	}
	if covered {
		return model.Reservation{}, ErrSlotUnavailable
	}

	count, err := s.reservations.CountActive(ctx, tx, req.DoctorID, req.Date, req.StartMinute, tpl.Location)
	if err != nil {
		return model.Reservation{}, err
	}
	if count >= tpl.MaxPerSlot {
		return model.Reservation{}, ErrSlotUnavailable
	}

	res := model.Reservation{
		ID:           uuid.NewString(),
		DoctorID:     req.DoctorID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		Date:         req.Date,
		StartMinute:  req.StartMinute,
		Location:     tpl.Location,
		Mode:         req.Mode,
		Symptoms:     req.Symptoms,
		QueryRef:     req.QueryRef,
		Status:       model.StatusPending,
	}

	// UNIQUE confirmation_code backstops the generator's pre-check. The
	// insert runs under a savepoint so a collision between check and
	// insert costs one more draw instead of aborting the transaction.
	for attempt := 0; ; attempt++ {
		res.ConfirmationCode, err = s.codes.Next(ctx)
		if err != nil {
			return model.Reservation{}, err
		}
		sp, err := tx.Begin(ctx)
		if err != nil {
			return model.Reservation{}, err
		}
		if err = s.reservations.Create(ctx, sp, &res); err == nil {
			if err := sp.Commit(ctx); err != nil {
				return model.Reservation{}, err
			}
			break
		}
		_ = sp.Rollback(ctx)
		if !storage.IsUniqueViolation(err) || attempt >= createCodeRetries {
			return model.Reservation{}, err
		}
	}

	actor := Actor{Kind: ActorPatient, ID: res.ID}
	if err := s.reservations.InsertHistory(ctx, tx, CreatedEntry(&res, actor, now)); err != nil {
		return model.Reservation{}, err
	}

	evt, err := outbox.ReservationEvent(outbox.TopicReservationCreated, &res, now)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Reservation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, err
	}

	s.logger.InfoContext(ctx, "reservation created",
		slog.String("reservation_id", res.ID),
		slog.String("doctor_id", res.DoctorID),
		slog.String("date", res.Date.Format("2006-01-02")),
		slog.Int("start_minute", res.StartMinute))
	return res, nil
}

// GetReservationByCode is the patient lookup: the confirmation code is the
// only credential a patient holds.
func (s *Service) GetReservationByCode(ctx context.Context, code string) (model.Reservation, []model.HistoryEntry, error) {
	res, err := s.reservations.GetByCode(ctx, code)
	if err != nil {
		return model.Reservation{}, nil, mapStorageErr(err)
	}
	history, err := s.reservations.ListHistory(ctx, res.ID)
	if err != nil {
		return model.Reservation{}, nil, err
	}
	return res, history, nil
}

// PatientCancel cancels a reservation identified by its confirmation code.
func (s *Service) PatientCancel(ctx context.Context, code, reason string) (model.Reservation, error) {
	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := s.reservations.GetForUpdateByCode(ctx, tx, code)
	if err != nil {
		return model.Reservation{}, mapStorageErr(err)
	}
	actor := Actor{Kind: ActorPatient, ID: res.ID}
	return s.finishTransition(ctx, tx, &res, ActionCancel, actor, reason)
}

// Transition applies a doctor- or admin-initiated lifecycle action.
func (s *Service) Transition(ctx context.Context, actor Actor, reservationID string, action Action, note string) (model.Reservation, error) {
	tx, err := s.reservations.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := s.reservations.GetForUpdate(ctx, tx, reservationID)
	if err != nil {
		return model.Reservation{}, mapStorageErr(err)
	}
	return s.finishTransition(ctx, tx, &res, action, actor, note)
}

func (s *Service) finishTransition(ctx context.Context, tx pgx.Tx, res *model.Reservation, action Action, actor Actor, note string) (model.Reservation, error) {
	now := time.Now().UTC()
	entry, err := Apply(res, action, actor, note, now)
	if err != nil {
		return model.Reservation{}, err
	}

	if err := s.reservations.UpdateStatus(ctx, tx, res); err != nil {
		return model.Reservation{}, err
	}
	if err := s.reservations.InsertHistory(ctx, tx, entry); err != nil {
		return model.Reservation{}, err
	}

	evt, err := outbox.ReservationEvent(topicForAction(action), res, now)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Reservation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, err
	}

	s.logger.InfoContext(ctx, "reservation transition",
		slog.String("reservation_id", res.ID),
		slog.String("action", string(action)),
		slog.String("actor", actor.String()),
		slog.String("status", string(res.Status)))
	return *res, nil
}

func topicForAction(action Action) string {
	switch action {
	case ActionConfirm:
		return outbox.TopicReservationConfirmed
	case ActionCancel:
		return outbox.TopicReservationCancelled
	case ActionComplete:
		return outbox.TopicReservationCompleted
	}
	return outbox.TopicReservationCreated
}

// ListDoctorReservations returns a doctor's reservations from a date onward.
func (s *Service) ListDoctorReservations(ctx context.Context, doctorID string, from time.Time, limit int) ([]model.Reservation, error) {
	return s.reservations.ListByDoctor(ctx, doctorID, from, limit)
}

// ListHistory exposes the audit trail for one reservation.
func (s *Service) ListHistory(ctx context.Context, reservationID string) ([]model.HistoryEntry, error) {
	return s.reservations.ListHistory(ctx, reservationID)
}

func mapStorageErr(err error) error {
	if storage.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

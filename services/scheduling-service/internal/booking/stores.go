package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/docslot/docslot/services/scheduling-service/internal/availability"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
	"github.com/docslot/docslot/services/scheduling-service/internal/outbox"
)

// The stores are the persistence surface the service consumes. The storage
// and outbox repositories satisfy them; tests substitute an in-memory ledger
// so the transaction flow runs without Postgres.

type DoctorStore interface {
	Get(ctx context.Context, id string) (model.Doctor, error)
}

type TemplateStore interface {
	ListActiveForDay(ctx context.Context, doctorID string, weekday int) ([]model.AvailabilityTemplate, error)
	// LockActiveForDay must hold a lock on the doctor's templates for the
	// weekday until the transaction ends, so capacity checks serialize.
	LockActiveForDay(ctx context.Context, tx pgx.Tx, doctorID string, weekday int) ([]model.AvailabilityTemplate, error)
}

type TimeOffStore interface {
	ListCovering(ctx context.Context, doctorID string, date time.Time) ([]model.TimeOff, error)
	CoversInTx(ctx context.Context, tx pgx.Tx, doctorID string, date time.Time) (bool, error)
}

type ReservationStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, res *model.Reservation) error
	CountActive(ctx context.Context, tx pgx.Tx, doctorID string, date time.Time, startMinute int, location string) (int, error)
	Occupancy(ctx context.Context, doctorID string, date time.Time) (map[availability.OccupancyKey]int, error)
	GetByCode(ctx context.Context, code string) (model.Reservation, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Reservation, error)
	GetForUpdateByCode(ctx context.Context, tx pgx.Tx, code string) (model.Reservation, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, res *model.Reservation) error
	InsertHistory(ctx context.Context, tx pgx.Tx, entry model.HistoryEntry) error
	ListHistory(ctx context.Context, reservationID string) ([]model.HistoryEntry, error)
	ListByDoctor(ctx context.Context, doctorID string, from time.Time, limit int) ([]model.Reservation, error)
}

type EventStore interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

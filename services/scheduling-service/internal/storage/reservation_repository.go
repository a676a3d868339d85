package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/services/scheduling-service/internal/availability"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

// ReservationRepository is the persistence side of the booking ledger.
// Capacity-sensitive reads take a pgx.Tx so the service can keep the
// occupancy check and the insert inside one transaction boundary.
type ReservationRepository struct {
	pool *db.Pool
}

func NewReservationRepository(pool *db.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const reservationColumns = `id::text, doctor_id::text, patient_name, patient_phone, date, start_minute,
		location, mode, symptoms, COALESCE(query_ref, ''), status, confirmation_code,
		COALESCE(notes, ''), COALESCE(cancel_reason, ''),
		created_at, confirmed_at, cancelled_at, completed_at`

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.DoctorID,
		&res.PatientName,
		&res.PatientPhone,
		&res.Date,
		&res.StartMinute,
		&res.Location,
		&res.Mode,
		&res.Symptoms,
		&res.QueryRef,
		&res.Status,
		&res.ConfirmationCode,
		&res.Notes,
		&res.CancelReason,
		&res.CreatedAt,
		&res.ConfirmedAt,
		&res.CancelledAt,
		&res.CompletedAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Date = model.DateOnly(res.Date)
	return res, nil
}

func (r *ReservationRepository) Create(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	return tx.QueryRow(ctx, `
		INSERT INTO reservations
			(id, doctor_id, patient_name, patient_phone, date, start_minute, location, mode,
			 symptoms, query_ref, status, confirmation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)
		RETURNING created_at
	`, res.ID, res.DoctorID, res.PatientName, res.PatientPhone, res.Date, res.StartMinute,
		res.Location, res.Mode, res.Symptoms, res.QueryRef, res.Status, res.ConfirmationCode,
	).Scan(&res.CreatedAt)
}

// CountActive is the authoritative occupancy read for one slot, run inside
// the booking transaction after the template rows are locked.
func (r *ReservationRepository) CountActive(ctx context.Context, tx pgx.Tx, doctorID string, date time.Time, startMinute int, location string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations
		WHERE doctor_id = $1
			AND date = $2
			AND start_minute = $3
			AND location = $4
			AND status IN ('pending', 'confirmed')
	`, doctorID, date, startMinute, location).Scan(&n)
	return n, err
}

// Occupancy loads active reservation counts for a whole day, keyed by slot.
// Used by the advisory slot view; staleness is acceptable there.
func (r *ReservationRepository) Occupancy(ctx context.Context, doctorID string, date time.Time) (map[availability.OccupancyKey]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_minute, location, count(*)
		FROM reservations
		WHERE doctor_id = $1
			AND date = $2
			AND status IN ('pending', 'confirmed')
		GROUP BY start_minute, location
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occ := make(map[availability.OccupancyKey]int)
	for rows.Next() {
		var key availability.OccupancyKey
		var n int
		if err := rows.Scan(&key.StartMinute, &key.Location, &n); err != nil {
			return nil, err
		}
		occ[key] = n
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return occ, nil
}

func (r *ReservationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reservations WHERE confirmation_code = $1)
	`, code).Scan(&exists)
	return exists, err
}

func (r *ReservationRepository) GetByCode(ctx context.Context, code string) (model.Reservation, error) {
	return scanReservation(r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE confirmation_code = $1
	`, code))
}

func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Reservation, error) {
	return scanReservation(tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *ReservationRepository) GetForUpdateByCode(ctx context.Context, tx pgx.Tx, code string) (model.Reservation, error) {
	return scanReservation(tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE confirmation_code = $1
		FOR UPDATE
	`, code))
}

// UpdateStatus persists the fields a state transition touches.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	_, err := tx.Exec(ctx, `
		UPDATE reservations
		SET status = $2,
			notes = NULLIF($3, ''),
			cancel_reason = NULLIF($4, ''),
			confirmed_at = $5,
			cancelled_at = $6,
			completed_at = $7
		WHERE id = $1
	`, res.ID, res.Status, res.Notes, res.CancelReason, res.ConfirmedAt, res.CancelledAt, res.CompletedAt)
	return err
}

func (r *ReservationRepository) InsertHistory(ctx context.Context, tx pgx.Tx, entry model.HistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reservation_history (reservation_id, action, old_status, new_status, actor, note)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
	`, entry.ReservationID, entry.Action, string(entry.OldStatus), entry.NewStatus, entry.Actor, entry.Note)
	return err
}

func (r *ReservationRepository) ListHistory(ctx context.Context, reservationID string) ([]model.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reservation_id::text, action, COALESCE(old_status, ''), new_status, actor, note, created_at
		FROM reservation_history
		WHERE reservation_id = $1
		ORDER BY id ASC
	`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.ReservationID, &e.Action, &e.OldStatus, &e.NewStatus, &e.Actor, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ReservationRepository) ListByDoctor(ctx context.Context, doctorID string, from time.Time, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE doctor_id = $1 AND date >= $2
		ORDER BY date ASC, start_minute ASC
		LIMIT $3
	`, doctorID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

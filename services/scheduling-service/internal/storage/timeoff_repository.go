package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

type TimeOffRepository struct {
	pool *db.Pool
}

func NewTimeOffRepository(pool *db.Pool) *TimeOffRepository {
	return &TimeOffRepository{pool: pool}
}

func (r *TimeOffRepository) Create(ctx context.Context, off *model.TimeOff) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO time_off (id, doctor_id, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, id, off.DoctorID, off.StartDate, off.EndDate, off.Reason)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *TimeOffRepository) ListByDoctor(ctx context.Context, doctorID string, from time.Time) ([]model.TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id::text, start_date, end_date, reason, created_at
		FROM time_off
		WHERE doctor_id = $1 AND end_date >= $2
		ORDER BY start_date ASC
	`, doctorID, from)
	if err != nil {
		return nil, err
	}
	return scanTimeOff(rows)
}

// ListCovering returns the exceptions whose inclusive range contains date.
func (r *TimeOffRepository) ListCovering(ctx context.Context, doctorID string, date time.Time) ([]model.TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id::text, start_date, end_date, reason, created_at
		FROM time_off
		WHERE doctor_id = $1 AND start_date <= $2 AND end_date >= $2
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	return scanTimeOff(rows)
}

// CoversInTx runs the same containment check inside the booking transaction.
func (r *TimeOffRepository) CoversInTx(ctx context.Context, tx pgx.Tx, doctorID string, date time.Time) (bool, error) {
	var covered bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM time_off
			WHERE doctor_id = $1 AND start_date <= $2 AND end_date >= $2
		)
	`, doctorID, date).Scan(&covered)
	return covered, err
}

func (r *TimeOffRepository) Delete(ctx context.Context, doctorID, id string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM time_off
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func scanTimeOff(rows pgx.Rows) ([]model.TimeOff, error) {
	defer rows.Close()
	var out []model.TimeOff
	for rows.Next() {
		var off model.TimeOff
		if err := rows.Scan(&off.ID, &off.DoctorID, &off.StartDate, &off.EndDate, &off.Reason, &off.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, off)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

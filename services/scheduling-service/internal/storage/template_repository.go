package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

type TemplateRepository struct {
	pool *db.Pool
}

func NewTemplateRepository(pool *db.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl *model.AvailabilityTemplate) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_templates
			(id, doctor_id, weekday, start_minute, end_minute, slot_minutes, max_per_slot, active, location, mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, tpl.DoctorID, tpl.Weekday, tpl.StartMinute, tpl.EndMinute, tpl.SlotMinutes,
		tpl.MaxPerSlot, tpl.Active, tpl.Location, tpl.Mode)
	if err != nil {
		return "", err
	}
	return id, nil
}

const templateColumns = `id::text, doctor_id::text, weekday, start_minute, end_minute,
		slot_minutes, max_per_slot, active, location, mode, created_at`

func scanTemplates(rows pgx.Rows) ([]model.AvailabilityTemplate, error) {
	defer rows.Close()
	var out []model.AvailabilityTemplate
	for rows.Next() {
		var tpl model.AvailabilityTemplate
		if err := rows.Scan(
			&tpl.ID,
			&tpl.DoctorID,
			&tpl.Weekday,
			&tpl.StartMinute,
			&tpl.EndMinute,
			&tpl.SlotMinutes,
			&tpl.MaxPerSlot,
			&tpl.Active,
			&tpl.Location,
			&tpl.Mode,
			&tpl.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *TemplateRepository) ListByDoctor(ctx context.Context, doctorID string) ([]model.AvailabilityTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM availability_templates
		WHERE doctor_id = $1
		ORDER BY weekday, start_minute, location
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return scanTemplates(rows)
}

// ListActiveForDay is the lock-free read used by the advisory slot view.
func (r *TemplateRepository) ListActiveForDay(ctx context.Context, doctorID string, weekday int) ([]model.AvailabilityTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM availability_templates
		WHERE doctor_id = $1 AND weekday = $2 AND active
		ORDER BY start_minute, location
	`, doctorID, weekday)
	if err != nil {
		return nil, err
	}
	return scanTemplates(rows)
}

// LockActiveForDay reads the same set FOR UPDATE. Concurrent reservation
// attempts for the same doctor/day serialize on these rows, which makes the
// occupancy check-then-insert race-free.
func (r *TemplateRepository) LockActiveForDay(ctx context.Context, tx pgx.Tx, doctorID string, weekday int) ([]model.AvailabilityTemplate, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+templateColumns+`
		FROM availability_templates
		WHERE doctor_id = $1 AND weekday = $2 AND active
		ORDER BY start_minute, location
		FOR UPDATE
	`, doctorID, weekday)
	if err != nil {
		return nil, err
	}
	return scanTemplates(rows)
}

func (r *TemplateRepository) SetActive(ctx context.Context, doctorID, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_templates
		SET active = $3
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, doctorID, id string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_templates
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

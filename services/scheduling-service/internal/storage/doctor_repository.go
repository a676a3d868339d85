package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

type DoctorRepository struct {
	pool *db.Pool
}

func NewDoctorRepository(pool *db.Pool) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

func (r *DoctorRepository) Create(ctx context.Context, name, specialty string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialty, accepting)
		VALUES ($1, $2, $3, true)
	`, id, name, specialty)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *DoctorRepository) Get(ctx context.Context, id string) (model.Doctor, error) {
	var d model.Doctor
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, specialty, accepting, created_at
		FROM doctors
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Specialty, &d.Accepting, &d.CreatedAt)
	if err != nil {
		return model.Doctor{}, err
	}
	return d, nil
}

func (r *DoctorRepository) SetAccepting(ctx context.Context, id string, accepting bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET accepting = $2
		WHERE id = $1
	`, id, accepting)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

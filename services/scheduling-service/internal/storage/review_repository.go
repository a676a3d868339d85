package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/services/scheduling-service/internal/model"
)

type ReviewRepository struct {
	pool *db.Pool
}

func NewReviewRepository(pool *db.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Insert relies on the UNIQUE reservation_id constraint to enforce one
// review per reservation; callers map the violation to a domain error.
func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (id, reservation_id, rating, text, visible)
		VALUES ($1, $2, $3, $4, $5)
	`, id, review.ReservationID, review.Rating, review.Text, review.Visible)
	if err != nil {
		return "", err
	}
	return id, nil
}

// VisibleRatings returns the ratings feeding a doctor's aggregate, joining
// through the reservations the doctor completed.
func (r *ReviewRepository) VisibleRatings(ctx context.Context, doctorID string) ([]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.rating
		FROM reviews v
		JOIN reservations res ON res.id = v.reservation_id
		WHERE res.doctor_id = $1 AND v.visible
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		ratings = append(ratings, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ratings, nil
}

// SetResponse records the doctor's reply; the join keeps doctors from
// responding to reviews of other doctors' reservations.
func (r *ReviewRepository) SetResponse(ctx context.Context, doctorID, reviewID, response string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews v
		SET doctor_response = $3
		FROM reservations res
		WHERE v.id = $1 AND res.id = v.reservation_id AND res.doctor_id = $2
	`, reviewID, doctorID, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *ReviewRepository) SetVisibility(ctx context.Context, reviewID string, visible bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews
		SET visible = $2
		WHERE id = $1
	`, reviewID, visible)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

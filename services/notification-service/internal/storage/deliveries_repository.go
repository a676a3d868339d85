package storage

import (
	"context"

	"github.com/docslot/docslot/libs/db"
)

type Delivery struct {
	ReservationID string
	EventType     string
	Recipient     string
	Body          string
	ProviderID    string
	Status        string
	ErrorReason   string
}

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type DeliveryRepository struct {
	pool *db.Pool
}

func NewDeliveryRepository(pool *db.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

func (r *DeliveryRepository) Insert(ctx context.Context, d Delivery) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO deliveries (reservation_id, event_type, recipient, body, provider_id, status, error_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ReservationID, d.EventType, d.Recipient, d.Body, d.ProviderID, d.Status, d.ErrorReason)
	return err
}

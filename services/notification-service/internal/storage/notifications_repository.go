package storage

import (
	"context"

	"github.com/stillwater-massage/practice/libs/db"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Notification is one delivery attempt on one channel.
type Notification struct {
	EventID       string
	EventType     string
	AppointmentID string
	Channel       string
	Recipient     string
	Subject       string
	Body          string
	Status        string
	ProviderID    string
	ErrorReason   string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, event_type, appointment_id, channel, recipient, subject, body, status, provider_id, error_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, n.EventID, n.EventType, n.AppointmentID, n.Channel, n.Recipient, n.Subject, n.Body, n.Status, n.ProviderID, n.ErrorReason)
	return err
}

package booking

import (
	"context"
	"time"

	"github.com/stillwater-massage/practice/services/practice-service/internal/availability"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

// Store is the appointment store. CreateAppointment and UpdateAppointment
// reject an appointment that would overlap another non-cancelled one with an
// apperr conflict; the check and the write happen atomically.
type Store interface {
	CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	// UpdateAppointment loads the row, applies mutate and writes it back in
	// one atomic step. An error from mutate aborts the update unchanged.
	UpdateAppointment(ctx context.Context, id string, mutate func(*model.Appointment) error) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// ListAppointments orders by date desc then time desc.
	ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
	// ListBlocking returns non-cancelled appointments overlapping [from, to).
	ListBlocking(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

// IdempotencyStore remembers the response sent for a public booking key.
type IdempotencyStore interface {
	LookupIdempotency(ctx context.Context, key string) (status int, payload []byte, found bool, err error)
	SaveIdempotency(ctx context.Context, key string, status int, payload []byte) error
}

type ScheduleLoader interface {
	LoadSchedule(ctx context.Context) (availability.Schedule, error)
}

type Catalog interface {
	Get(ctx context.Context, id string) (model.Offering, error)
}

type Customers interface {
	Get(ctx context.Context, id string) (model.Customer, error)
	FindOrCreate(ctx context.Context, name, email, phone string) (model.Customer, error)
}

package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

// Kafka topic names equal the event type.
const (
	AppointmentBooked    = "appointment.booked.v1"
	AppointmentUpdated   = "appointment.updated.v1"
	AppointmentCancelled = "appointment.cancelled.v1"
	AppointmentDeleted   = "appointment.deleted.v1"

	aggregateAppointment = "appointment"
)

// Event is the domain event envelope written to the outbox.
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentPayload struct {
	EventID         string   `json:"event_id"`
	OccurredAt      string   `json:"occurred_at"`
	AppointmentID   string   `json:"appointment_id"`
	CustomerID      string   `json:"customer_id,omitempty"`
	CustomerName    string   `json:"customer_name"`
	CustomerEmail   string   `json:"customer_email,omitempty"`
	CustomerPhone   string   `json:"customer_phone,omitempty"`
	ServiceName     string   `json:"service_name"`
	AddonIDs        []string `json:"addon_ids"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Status          string   `json:"status"`
	Total           float64  `json:"total"`
	CreatedBy       string   `json:"created_by"`
}

func NewAppointmentEvent(eventType string, a model.Appointment, now time.Time) (Event, error) {
	id := uuid.NewString()
	addons := a.AddonIDs
	if addons == nil {
		addons = []string{}
	}
	payload, err := json.Marshal(AppointmentPayload{
		EventID:         id,
		OccurredAt:      now.UTC().Format(time.RFC3339),
		AppointmentID:   a.ID,
		CustomerID:      a.CustomerID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		ServiceName:     a.ServiceName,
		AddonIDs:        addons,
		Date:            a.Date(),
		Time:            a.Time(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Total:           a.Total(),
		CreatedBy:       string(a.CreatedBy),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventID:       id,
		AggregateType: aggregateAppointment,
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// UpdateEventType picks the event for a change from before to after.
func UpdateEventType(before, after model.Appointment) string {
	if after.Status == model.StatusCancelled && before.Status != model.StatusCancelled {
		return AppointmentCancelled
	}
	return AppointmentUpdated
}

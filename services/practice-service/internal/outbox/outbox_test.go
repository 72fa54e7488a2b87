package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stillwater-massage/practice/libs/kafkax"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewAppointmentEvent(t *testing.T) {
	day, _ := model.ParseDate("2026-03-02")
	appt := model.Appointment{
		ID:              "appt-1",
		CustomerName:    "Ada",
		CustomerEmail:   "ada@example.com",
		ServiceName:     "Deep Tissue 60",
		ServicePrice:    90,
		AddonsTotal:     15.5,
		StartsAt:        model.At(day, 13*60+30),
		DurationMinutes: 75,
		Status:          model.StatusScheduled,
		CreatedBy:       model.ActorCustomer,
	}
	evt, err := NewAppointmentEvent(AppointmentBooked, appt, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if evt.EventID == "" || evt.AggregateID != "appt-1" || evt.EventType != AppointmentBooked {
		t.Fatalf("unexpected event %+v", evt)
	}

	var p AppointmentPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.EventID != evt.EventID || p.Date != "2026-03-02" || p.Time != "13:30" || p.Total != 105.5 {
		t.Fatalf("unexpected payload %+v", p)
	}
	if p.AddonIDs == nil {
		t.Fatal("addon_ids must encode as an empty list")
	}
}

func TestUpdateEventType(t *testing.T) {
	before := model.Appointment{Status: model.StatusScheduled}
	if got := UpdateEventType(before, model.Appointment{Status: model.StatusCancelled}); got != AppointmentCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}
	if got := UpdateEventType(before, model.Appointment{Status: model.StatusConfirmed}); got != AppointmentUpdated {
		t.Fatalf("expected updated, got %s", got)
	}
}

func TestToMessageCarriesMetaAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	rec := Record{
		ID:          7,
		EventID:     "evt-1",
		AggregateID: "appt-1",
		EventType:   AppointmentBooked,
		Payload:     []byte(`{}`),
		Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	}
	msg := toMessage(context.Background(), rec)
	if msg.Topic != AppointmentBooked || string(msg.Key) != "appt-1" {
		t.Fatalf("unexpected message routing %s %s", msg.Topic, msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != AppointmentBooked {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if kafkax.HeaderValue(msg.Headers, "traceparent") != rec.Traceparent {
		t.Fatalf("expected traceparent to be propagated, got %q", kafkax.HeaderValue(msg.Headers, "traceparent"))
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stillwater-massage/practice/libs/kafkax"
	"github.com/stillwater-massage/practice/services/notification-service/internal/storage"
)

type sentMail struct{ to, subject, body string }

type fakeEmail struct {
	sent []sentMail
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

func (f *fakeEmail) ProviderID() string { return "fake-email" }

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+": "+body)
	return nil
}

func (f *fakeSMS) ProviderID() string { return "fake-sms" }

type fakeRecorder struct {
	rows []storage.Notification
	err  error
}

func (f *fakeRecorder) Insert(_ context.Context, n storage.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, n)
	return nil
}

func message(t *testing.T, a Appointment) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Value: raw}
}

func sampleAppointment() Appointment {
	return Appointment{
		EventID:         "evt-1",
		AppointmentID:   "appt-1",
		CustomerName:    "Dana Reyes",
		CustomerEmail:   "dana@example.com",
		CustomerPhone:   "+15550100",
		ServiceName:     "Swedish 60",
		Date:            "2026-03-02",
		Time:            "10:00",
		DurationMinutes: 60,
		Status:          "confirmed",
		Total:           80,
	}
}

func newNotifier(e *fakeEmail, s *fakeSMS, r *fakeRecorder) *Notifier {
	return New(e, s, r, "Stillwater Massage", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBookedSendsEmailAndSMS(t *testing.T) {
	e, s, r := &fakeEmail{}, &fakeSMS{}, &fakeRecorder{}
	n := newNotifier(e, s, r)

	meta := kafkax.EventMeta{EventID: "evt-1", EventType: EventBooked}
	if err := n.Handle(context.Background(), meta, message(t, sampleAppointment())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(e.sent) != 1 || e.sent[0].to != "dana@example.com" {
		t.Fatalf("unexpected emails %+v", e.sent)
	}
	if !strings.Contains(e.sent[0].body, "Monday, March 2 at 10:00 AM") || !strings.Contains(e.sent[0].body, "$80.00") {
		t.Fatalf("unexpected email body %q", e.sent[0].body)
	}
	if !strings.HasPrefix(e.sent[0].body, "Hi Dana,") {
		t.Fatalf("expected greeting by first name, got %q", e.sent[0].body)
	}
	if len(s.sent) != 1 || !strings.HasPrefix(s.sent[0], "+15550100: Stillwater Massage:") {
		t.Fatalf("unexpected sms %+v", s.sent)
	}
	if len(r.rows) != 2 {
		t.Fatalf("expected 2 recorded notifications, got %d", len(r.rows))
	}
	for _, row := range r.rows {
		if row.Status != storage.StatusSent || row.EventID != "evt-1" || row.AppointmentID != "appt-1" {
			t.Fatalf("unexpected row %+v", row)
		}
	}
	if r.rows[0].ProviderID != "fake-email" || r.rows[1].ProviderID != "fake-sms" {
		t.Fatalf("unexpected providers %q %q", r.rows[0].ProviderID, r.rows[1].ProviderID)
	}
}

func TestSendFailureIsRecordedNotReturned(t *testing.T) {
	e, s, r := &fakeEmail{err: errors.New("relay down")}, &fakeSMS{}, &fakeRecorder{}
	n := newNotifier(e, s, r)

	meta := kafkax.EventMeta{EventID: "evt-2", EventType: EventCancelled}
	if err := n.Handle(context.Background(), meta, message(t, sampleAppointment())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(r.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(r.rows))
	}
	if r.rows[0].Status != storage.StatusFailed || r.rows[0].ErrorReason != "relay down" {
		t.Fatalf("expected failed email row, got %+v", r.rows[0])
	}
	if r.rows[1].Status != storage.StatusSent || !strings.Contains(r.rows[1].Body, "cancelled") {
		t.Fatalf("expected sent sms row, got %+v", r.rows[1])
	}
}

func TestRecorderErrorIsReturned(t *testing.T) {
	r := &fakeRecorder{err: errors.New("db down")}
	n := newNotifier(&fakeEmail{}, nil, r)

	meta := kafkax.EventMeta{EventID: "evt-3", EventType: EventUpdated}
	if err := n.Handle(context.Background(), meta, message(t, sampleAppointment())); err == nil {
		t.Fatal("expected recorder error")
	}
}

func TestEventsWithoutNotice(t *testing.T) {
	e, s, r := &fakeEmail{}, &fakeSMS{}, &fakeRecorder{}
	n := newNotifier(e, s, r)
	ctx := context.Background()

	if err := n.Handle(ctx, kafkax.EventMeta{EventType: EventDeleted}, message(t, sampleAppointment())); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if err := n.Handle(ctx, kafkax.EventMeta{EventType: EventBooked}, kafka.Message{Value: []byte("{not json")}); err != nil {
		t.Fatalf("malformed: %v", err)
	}
	noID := sampleAppointment()
	noID.AppointmentID = ""
	if err := n.Handle(ctx, kafkax.EventMeta{EventType: EventBooked}, message(t, noID)); err != nil {
		t.Fatalf("missing id: %v", err)
	}
	if len(e.sent)+len(s.sent)+len(r.rows) != 0 {
		t.Fatalf("expected nothing sent, got %d emails %d sms %d rows", len(e.sent), len(s.sent), len(r.rows))
	}
}

func TestMissingContactSkipsChannel(t *testing.T) {
	e, s, r := &fakeEmail{}, &fakeSMS{}, &fakeRecorder{}
	n := newNotifier(e, s, r)

	a := sampleAppointment()
	a.CustomerPhone = ""
	if err := n.Handle(context.Background(), kafkax.EventMeta{EventType: EventBooked}, message(t, a)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(e.sent) != 1 || len(s.sent) != 0 || len(r.rows) != 1 {
		t.Fatalf("expected email only, got %d emails %d sms", len(e.sent), len(s.sent))
	}
}

func TestRenderFallbacks(t *testing.T) {
	c, ok := Render("Stillwater", EventUpdated, Appointment{Date: "tomorrow", Time: "", DurationMinutes: 30, Status: "confirmed"})
	if !ok {
		t.Fatal("expected a notice for updates")
	}
	if !strings.HasPrefix(c.Email, "Hi there,") || !strings.Contains(c.Email, "massage appointment is now on tomorrow") {
		t.Fatalf("unexpected body %q", c.Email)
	}
	if _, ok := Render("Stillwater", "appointment.unknown.v1", Appointment{}); ok {
		t.Fatal("expected no notice for unknown events")
	}
}

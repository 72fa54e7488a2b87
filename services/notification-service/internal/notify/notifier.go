// Package notify turns appointment events into customer emails and text messages.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/stillwater-massage/practice/libs/kafkax"
	"github.com/stillwater-massage/practice/services/notification-service/internal/metrics"
	"github.com/stillwater-massage/practice/services/notification-service/internal/storage"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
	ProviderID() string
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
	ProviderID() string
}

// Recorder persists the outcome of every delivery attempt.
type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Notifier struct {
	email    EmailSender
	sms      SMSSender
	recorder Recorder
	practice string
	logger   *slog.Logger
}

// New returns a Notifier. A nil sender disables its channel.
func New(email EmailSender, sms SMSSender, recorder Recorder, practice string, logger *slog.Logger) *Notifier {
	return &Notifier{
		email:    email,
		sms:      sms,
		recorder: recorder,
		practice: practice,
		logger:   logger,
	}
}

// Handle delivers the notices for one appointment event. Malformed payloads
// are logged and dropped. Provider failures are recorded rather than
// returned; only a failure to record is an error.
func (n *Notifier) Handle(ctx context.Context, meta kafkax.EventMeta, msg kafka.Message) error {
	var appt Appointment
	if err := json.Unmarshal(msg.Value, &appt); err != nil {
		n.logger.Error("invalid appointment payload", "err", err, "event_id", meta.EventID)
		return nil
	}
	if appt.AppointmentID == "" {
		n.logger.Error("appointment event without appointment_id", "event_id", meta.EventID)
		return nil
	}
	content, ok := Render(n.practice, meta.EventType, appt)
	if !ok {
		n.logger.Debug("no notice for event", "event_type", meta.EventType, "appointment_id", appt.AppointmentID)
		return nil
	}

	base := storage.Notification{
		EventID:       meta.EventID,
		EventType:     meta.EventType,
		AppointmentID: appt.AppointmentID,
	}

	if to := strings.TrimSpace(appt.CustomerEmail); to != "" && n.email != nil {
		rec := base
		rec.Channel, rec.Recipient, rec.Subject, rec.Body = ChannelEmail, to, content.Subject, content.Email
		err := n.email.Send(ctx, to, content.Subject, content.Email)
		if err := n.finish(ctx, rec, n.email.ProviderID(), err); err != nil {
			return err
		}
	}
	if to := strings.TrimSpace(appt.CustomerPhone); to != "" && n.sms != nil {
		rec := base
		rec.Channel, rec.Recipient, rec.Body = ChannelSMS, to, content.SMS
		err := n.sms.Send(ctx, to, content.SMS)
		if err := n.finish(ctx, rec, n.sms.ProviderID(), err); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) finish(ctx context.Context, rec storage.Notification, providerID string, sendErr error) error {
	rec.ProviderID = providerID
	if sendErr != nil {
		rec.Status = storage.StatusFailed
		rec.ErrorReason = sendErr.Error()
		metrics.NotificationsFailed.WithLabelValues(rec.Channel, rec.EventType).Inc()
		n.logger.Error("notification send failed", "err", sendErr, "channel", rec.Channel, "appointment_id", rec.AppointmentID)
	} else {
		rec.Status = storage.StatusSent
		metrics.NotificationsSent.WithLabelValues(rec.Channel, rec.EventType).Inc()
		n.logger.Info("notification sent", "channel", rec.Channel, "appointment_id", rec.AppointmentID, "event_type", rec.EventType)
	}
	if err := n.recorder.Insert(ctx, rec); err != nil {
		n.logger.Error("failed to persist notification", "err", err, "channel", rec.Channel)
		return err
	}
	return nil
}

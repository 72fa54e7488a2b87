package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stillwater-massage/practice/libs/kafkax"
)

type memInbox struct {
	seen      map[string]bool
	forgotten []string
	err       error
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *memInbox) Forget(_ context.Context, eventID string) error {
	delete(m.seen, eventID)
	m.forgotten = append(m.forgotten, eventID)
	return nil
}

func testConsumer(inbox Inbox, h Handler) *Consumer {
	return &Consumer{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:   inbox,
		handler: h,
	}
}

func eventMessage(id string) kafka.Message {
	return kafka.Message{
		Topic:   "appointment.booked.v1",
		Headers: kafkax.EventMeta{EventID: id, EventType: "appointment.booked.v1"}.Headers(),
	}
}

func TestProcessSkipsDuplicates(t *testing.T) {
	calls := 0
	c := testConsumer(&memInbox{seen: map[string]bool{}}, func(_ context.Context, meta kafkax.EventMeta, _ kafka.Message) error {
		calls++
		if meta.EventID != "evt-1" || meta.EventType != "appointment.booked.v1" {
			t.Errorf("unexpected meta %+v", meta)
		}
		return nil
	})

	if got := c.process(context.Background(), eventMessage("evt-1")); got != "handled" {
		t.Fatalf("expected handled, got %s", got)
	}
	if got := c.process(context.Background(), eventMessage("evt-1")); got != "duplicate" {
		t.Fatalf("expected duplicate, got %s", got)
	}
	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
}

func TestProcessForgetsFailedEvents(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	fail := true
	c := testConsumer(inbox, func(context.Context, kafkax.EventMeta, kafka.Message) error {
		if fail {
			return errors.New("db down")
		}
		return nil
	})

	if got := c.process(context.Background(), eventMessage("evt-2")); got != "error" {
		t.Fatalf("expected error, got %s", got)
	}
	if len(inbox.forgotten) != 1 || inbox.forgotten[0] != "evt-2" {
		t.Fatalf("expected evt-2 forgotten, got %v", inbox.forgotten)
	}
	fail = false
	if got := c.process(context.Background(), eventMessage("evt-2")); got != "handled" {
		t.Fatalf("expected redelivery handled, got %s", got)
	}
}

func TestProcessInboxError(t *testing.T) {
	called := false
	c := testConsumer(&memInbox{err: errors.New("no db")}, func(context.Context, kafkax.EventMeta, kafka.Message) error {
		called = true
		return nil
	})
	if got := c.process(context.Background(), eventMessage("evt-3")); got != "inbox_error" || called {
		t.Fatalf("expected inbox_error without handler, got %s called=%v", got, called)
	}
}

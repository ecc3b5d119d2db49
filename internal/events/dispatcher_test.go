package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.TicketID)
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketStatusUpdated, func(context.Context, Event) error {
		calls = append(calls, "status")
		return nil
	})

	err := d.Publish(context.Background(), New(EventTicketCreated, "42", "", nil))
	if err == nil {
		t.Fatalf("expected handler error to be reported")
	}
	if len(calls) != 2 || calls[0] != "first:42" || calls[1] != "second:42" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestNewStampsEvent(t *testing.T) {
	e := New(EventTicketStatusUpdated, "9", "req-1", TicketStatusUpdatedPayload{NewStatus: "Hold"})
	if e.ID == "" || e.Timestamp.IsZero() || e.RequestID != "req-1" {
		t.Fatalf("event not stamped: %+v", e)
	}
}

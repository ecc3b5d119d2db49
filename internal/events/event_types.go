package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-web/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusUpdated EventType = "ticket_status_updated"
)

// Event records something a user did through the web client.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketID, requestID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Priority domain.TicketPriority `json:"priority"`
	Subject  string                `json:"subject"`
}

// TicketStatusUpdatedPayload payload.
type TicketStatusUpdatedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	ChangedBy  string              `json:"changed_by"`
	AssignedTo string              `json:"assigned_to,omitempty"`
}

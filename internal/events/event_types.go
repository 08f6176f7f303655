package events

import (
	"time"

	"github.com/ticketd/ticketd/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
)

// Actor identifies the user who caused a change. A nil *Actor on an
// event means the change was system-initiated.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     *Actor      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OwnerID       string                `json:"owner_id"`
	OwnerSequence int                   `json:"owner_sequence"`
	Title         string                `json:"title"`
	Priority      domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload. From is nil for the implicit
// creation entry, mirroring the audit log encoding.
type TicketStatusChangedPayload struct {
	From *string `json:"from"`
	To   string  `json:"to"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

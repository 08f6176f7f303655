package domain

import "time"

// PriorityLogPrefix tags log values that record a priority change rather
// than a status transition, so one append-only table records both kinds
// without ambiguity.
const PriorityLogPrefix = "priority:"

// ViewedMarker is the one-time pseudo-status written when an agent first
// opens a ticket. It never appears in the ticket's status field.
const ViewedMarker = "viewed"

// TicketLog is an immutable audit trail entry. FromValue is nil only for
// the implicit entry written when the ticket is created.
type TicketLog struct {
	ID        string
	TicketID  string
	ActorID   *string
	FromValue *string
	ToValue   string
	CreatedAt time.Time
}

// PriorityLogValue encodes a priority for storage in a log entry.
func PriorityLogValue(p TicketPriority) string {
	return PriorityLogPrefix + string(p)
}

// IsStatusEntry reports whether the entry records a status transition,
// as opposed to a priority change or the viewed marker.
func (l *TicketLog) IsStatusEntry() bool {
	return ValidStatus(TicketStatus(l.ToValue))
}

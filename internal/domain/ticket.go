package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// nextStatus maps each state to its single legal successor. The workflow
// is strictly linear: a ticket advances one step at a time, so a jump
// such as open->resolved is rejected even though resolved comes later in
// the lifecycle. Comparing ordinal positions would silently allow it.
var nextStatus = map[TicketStatus]TicketStatus{
	TicketStatusOpen:       TicketStatusInProgress,
	TicketStatusInProgress: TicketStatusResolved,
}

// ValidStatus reports whether s is a known ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known ticket priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// CanTransition reports whether to is the immediate successor of from.
func CanTransition(from, to TicketStatus) bool {
	return nextStatus[from] == to
}

// PriorityRank orders priorities for the triage queue; lower sorts first.
func PriorityRank(p TicketPriority) int {
	switch p {
	case TicketPriorityHigh:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 3
	}
	return 4
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	OwnerID       string
	OwnerSequence int
	Title         string
	Description   string
	Category      *string
	Priority      TicketPriority
	Status        TicketStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Active reports whether the ticket still belongs in the triage queue.
func (t *Ticket) Active() bool {
	return t.Status == TicketStatusOpen || t.Status == TicketStatusInProgress
}

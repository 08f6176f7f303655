package dto

import (
	"time"

	"github.com/ticketd/ticketd/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	ToStatus domain.TicketStatus `json:"to_status"`
}

// SetPriorityRequest payload.
type SetPriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	OwnerID       string                `json:"owner_id"`
	OwnerSequence int                   `json:"owner_sequence"`
	Title         string                `json:"title"`
	Category      *string               `json:"category"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info with its audit trail.
type TicketDetailResponse struct {
	TicketSummary
	Description string          `json:"description"`
	Logs        []TicketLogItem `json:"logs"`
}

// TicketLogItem represents one audit trail entry.
type TicketLogItem struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	ActorID   *string   `json:"actor_id"`
	FromValue *string   `json:"from_value"`
	ToValue   string    `json:"to_value"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStatsResponse summarizes the active workload.
type DashboardStatsResponse struct {
	Total         int             `json:"total"`
	Open          int             `json:"open"`
	InProgress    int             `json:"in_progress"`
	ResolvedToday int             `json:"resolved_today"`
	RecentTickets []TicketSummary `json:"recent_tickets"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:            t.ID,
		OwnerID:       t.OwnerID,
		OwnerSequence: t.OwnerSequence,
		Title:         t.Title,
		Category:      t.Category,
		Status:        t.Status,
		Priority:      t.Priority,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// NewTicketLogItem maps a domain log entry.
func NewTicketLogItem(l *domain.TicketLog) TicketLogItem {
	return TicketLogItem{
		ID:        l.ID,
		TicketID:  l.TicketID,
		ActorID:   l.ActorID,
		FromValue: l.FromValue,
		ToValue:   l.ToValue,
		CreatedAt: l.CreatedAt,
	}
}

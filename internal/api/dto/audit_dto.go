package dto

import (
	"time"

	"github.com/ticketd/ticketd/internal/repository"
)

// ActivityLogItem is one global activity log row with its joined
// ticket and actor context.
type ActivityLogItem struct {
	ID        string             `json:"id"`
	TicketID  string             `json:"ticket_id"`
	FromValue *string            `json:"from_value"`
	ToValue   string             `json:"to_value"`
	CreatedAt time.Time          `json:"created_at"`
	Ticket    *ActivityLogTicket `json:"ticket"`
	User      *ActivityLogUser   `json:"user"`
}

// ActivityLogTicket is the owning ticket summary on a log row.
type ActivityLogTicket struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// ActivityLogUser is the acting user on a log row.
type ActivityLogUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActivityLogStats aggregates log volume.
type ActivityLogStats struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	ThisWeek  int `json:"this_week"`
	ThisMonth int `json:"this_month"`
}

// ActivityLogPage is one page of the filtered activity log.
type ActivityLogPage struct {
	Logs     []ActivityLogItem `json:"logs"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Stats    ActivityLogStats  `json:"stats"`
}

// NewActivityLogItem maps a joined repository row.
func NewActivityLogItem(d *repository.LogDetail) ActivityLogItem {
	item := ActivityLogItem{
		ID:        d.ID,
		TicketID:  d.TicketID,
		FromValue: d.FromValue,
		ToValue:   d.ToValue,
		CreatedAt: d.CreatedAt,
	}
	if d.TicketTitle != nil {
		item.Ticket = &ActivityLogTicket{
			ID:       d.TicketID,
			Title:    *d.TicketTitle,
			Status:   deref(d.TicketStatus),
			Priority: deref(d.TicketPriority),
		}
	}
	if d.ActorID != nil && d.ActorName != nil {
		item.User = &ActivityLogUser{
			ID:    *d.ActorID,
			Name:  *d.ActorName,
			Email: deref(d.ActorEmail),
		}
	}
	return item
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

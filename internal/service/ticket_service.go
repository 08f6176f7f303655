package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ticketd/ticketd/internal/domain"
	"github.com/ticketd/ticketd/internal/events"
	"github.com/ticketd/ticketd/internal/repository"
	apperrors "github.com/ticketd/ticketd/pkg/util"
)

// TicketService is the ticket lifecycle engine. Every mutating operation
// runs as one transactional unit that pairs the ticket write with its
// audit log entry; change events are emitted only after the unit commits.
type TicketService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(store repository.Store, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{store: store, dispatcher: dispatcher}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    *string
}

// QueueStats summarizes the active workload for the admin dashboard.
type QueueStats struct {
	Total         int
	Open          int
	InProgress    int
	ResolvedToday int
	RecentTickets []domain.Ticket
}

// Create opens a ticket for the owner. The per-owner sequence number is
// assigned under an owner-scoped advisory lock so concurrent creations
// by the same user never share a number, and the implicit creation log
// entry (from=null, to=open) commits with the ticket.
func (s *TicketService) Create(ctx context.Context, owner *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	ticket := &domain.Ticket{
		OwnerID:     owner.ID,
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    domain.TicketPriorityLow,
		Status:      domain.TicketStatusOpen,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		seq, err := tx.Tickets().NextOwnerSequence(ctx, owner.ID)
		if err != nil {
			return err
		}
		ticket.OwnerSequence = seq
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		entry := &domain.TicketLog{
			TicketID: ticket.ID,
			ActorID:  &owner.ID,
			ToValue:  string(domain.TicketStatusOpen),
		}
		return tx.Logs().Create(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorRef(owner),
		Payload: events.TicketCreatedPayload{
			OwnerID:       ticket.OwnerID,
			OwnerSequence: ticket.OwnerSequence,
			Title:         ticket.Title,
			Priority:      ticket.Priority,
		},
	})
	return ticket, nil
}

// Get returns a ticket by id. Callers enforce ownership.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err)
	}
	return ticket, nil
}

// ListByOwner returns the owner's tickets, newest first.
func (s *TicketService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	tickets, err := s.store.Tickets().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListQueue returns active tickets in triage order: priority high,
// medium, low, oldest first within the same priority.
func (s *TicketService) ListQueue(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.store.Tickets().ListQueue(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ChangeStatus advances a ticket to the requested status. Requesting the
// current status is an idempotent no-op: no log entry, no event. Any
// destination that is not the immediate successor of the current status
// fails without mutating anything. The row lock taken before
// re-validation serializes concurrent writers on the same ticket.
func (s *TicketService) ChangeStatus(ctx context.Context, ticketID string, to domain.TicketStatus, actor *domain.User) (*domain.Ticket, error) {
	if !domain.ValidStatus(to) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(to)})
	}

	var updated *domain.Ticket
	var from domain.TicketStatus
	changed := false

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err)
		}
		if ticket.Status == to {
			updated = ticket
			return nil
		}
		if !domain.CanTransition(ticket.Status, to) {
			return apperrors.NewInvalidTransition(string(ticket.Status), string(to))
		}

		from = ticket.Status
		ticket.Status = to
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		entry := &domain.TicketLog{
			TicketID:  ticket.ID,
			ActorID:   actorID(actor),
			FromValue: strPtr(string(from)),
			ToValue:   string(to),
		}
		if err := tx.Logs().Create(ctx, entry); err != nil {
			return err
		}
		updated = ticket
		changed = true
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if changed {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			Actor:    actorRef(actor),
			Payload: events.TicketStatusChangedPayload{
				From: strPtr(string(from)),
				To:   string(to),
			},
		})
	}
	return updated, nil
}

// SetPriority changes a ticket's priority, legal in any status. The log
// entry encodes both values with the priority prefix so the shared log
// table stays unambiguous. Priority changes never emit the status-change
// notification.
func (s *TicketService) SetPriority(ctx context.Context, ticketID string, priority domain.TicketPriority, actor *domain.User) (*domain.Ticket, error) {
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}

	var updated *domain.Ticket
	var old domain.TicketPriority

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err)
		}
		old = ticket.Priority
		ticket.Priority = priority
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		entry := &domain.TicketLog{
			TicketID:  ticket.ID,
			ActorID:   actorID(actor),
			FromValue: strPtr(domain.PriorityLogValue(old)),
			ToValue:   domain.PriorityLogValue(priority),
		}
		if err := tx.Logs().Create(ctx, entry); err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: updated.ID,
		Actor:    actorRef(actor),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: old,
			NewPriority: priority,
		},
	})
	return updated, nil
}

// MarkAsFirstViewed records a one-time audit marker when an agent first
// opens a still-open ticket. The marker never touches the status field
// and the call is a no-op when the ticket has moved on or the marker
// already exists.
func (s *TicketService) MarkAsFirstViewed(ctx context.Context, ticketID string, actor *domain.User) (*domain.Ticket, error) {
	var result *domain.Ticket
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err)
		}
		result = ticket
		if ticket.Status != domain.TicketStatusOpen {
			return nil
		}
		seen, err := tx.Logs().HasEntryWithValue(ctx, ticket.ID, domain.ViewedMarker)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
		entry := &domain.TicketLog{
			TicketID:  ticket.ID,
			ActorID:   actorID(actor),
			FromValue: strPtr(string(domain.TicketStatusOpen)),
			ToValue:   domain.ViewedMarker,
		}
		return tx.Logs().Create(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// Delete soft-deletes a ticket. The row keeps its sequence number and
// its audit trail; it just disappears from every listing.
func (s *TicketService) Delete(ctx context.Context, ticketID string) error {
	if err := s.store.Tickets().SoftDelete(ctx, ticketID); err != nil {
		return apperrors.MapError(mapTicketErr(err))
	}
	return nil
}

// DashboardStats aggregates the admin dashboard numbers.
func (s *TicketService) DashboardStats(ctx context.Context) (*QueueStats, error) {
	tickets := s.store.Tickets()
	logs := s.store.Logs()

	stats := &QueueStats{}
	var err error
	if stats.Total, err = tickets.CountByStatus(ctx, domain.TicketStatusOpen, domain.TicketStatusInProgress); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.Open, err = tickets.CountByStatus(ctx, domain.TicketStatusOpen); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.InProgress, err = tickets.CountByStatus(ctx, domain.TicketStatusInProgress); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.ResolvedToday, err = logs.CountTicketsReaching(ctx, string(domain.TicketStatusResolved), time.Now()); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.RecentTickets, err = tickets.QueueHead(ctx, 5); err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapTicketErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return err
}

func actorID(actor *domain.User) *string {
	if actor == nil {
		return nil
	}
	return &actor.ID
}

func actorRef(actor *domain.User) *events.Actor {
	if actor == nil {
		return nil
	}
	return &events.Actor{ID: actor.ID, Name: actor.Name}
}

func strPtr(s string) *string {
	return &s
}

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ticketd/ticketd/internal/domain"
	"github.com/ticketd/ticketd/internal/events"
	"github.com/ticketd/ticketd/internal/repository"
)

// memStore is an in-memory repository.Store. WithinTx serializes units
// of work with one mutex, mirroring the serialization the database
// provides through row and advisory locks.
type memStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	logs    []*domain.TicketLog
	users   map[string]*domain.User
	nextID  int
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		tickets: make(map[string]*domain.Ticket),
		users:   make(map[string]*domain.User),
		clock:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) Tickets() repository.TicketRepository { return &memTickets{s} }
func (s *memStore) Logs() repository.TicketLogRepository { return &memLogs{s} }
func (s *memStore) Users() repository.UserRepository { return &memUsers{s} }

func (s *memStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	// No rollback support: tests that exercise failures inside a unit
	// of work assert on the error, not on partial state.
	return fn(s)
}

func (s *memStore) newID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memStore) tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memTickets struct{ s *memStore }

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = r.s.newID("ticket")
	now := r.s.tick()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	copied := *ticket
	r.s.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	stored, ok := r.s.tickets[ticket.ID]
	if !ok || stored.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.s.tick()
	copied := *ticket
	r.s.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	stored, ok := r.s.tickets[id]
	if !ok || stored.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memTickets) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *memTickets) NextOwnerSequence(_ context.Context, ownerID string) (int, error) {
	max := 0
	for _, t := range r.s.tickets {
		if t.OwnerID == ownerID && t.OwnerSequence > max {
			max = t.OwnerSequence
		}
	}
	return max + 1, nil
}

func (r *memTickets) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if t.OwnerID == ownerID && t.DeletedAt == nil {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memTickets) ListQueue(_ context.Context) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if t.Active() && t.DeletedAt == nil {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := domain.PriorityRank(result[i].Priority), domain.PriorityRank(result[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memTickets) QueueHead(ctx context.Context, limit int) ([]domain.Ticket, error) {
	queue, err := r.ListQueue(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(queue) > limit {
		queue = queue[:limit]
	}
	return queue, nil
}

func (r *memTickets) CountByStatus(_ context.Context, statuses ...domain.TicketStatus) (int, error) {
	count := 0
	for _, t := range r.s.tickets {
		if t.DeletedAt != nil {
			continue
		}
		for _, s := range statuses {
			if t.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *memTickets) SoftDelete(_ context.Context, id string) error {
	stored, ok := r.s.tickets[id]
	if !ok || stored.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.s.tick()
	stored.DeletedAt = &now
	return nil
}

type memLogs struct{ s *memStore }

func (r *memLogs) Create(_ context.Context, entry *domain.TicketLog) error {
	entry.ID = r.s.newID("log")
	entry.CreatedAt = r.s.tick()
	copied := *entry
	r.s.logs = append(r.s.logs, &copied)
	return nil
}

func (r *memLogs) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketLog, error) {
	var result []domain.TicketLog
	for _, l := range r.s.logs {
		if l.TicketID == ticketID {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memLogs) HasEntryWithValue(_ context.Context, ticketID, toValue string) (bool, error) {
	for _, l := range r.s.logs {
		if l.TicketID == ticketID && l.ToValue == toValue {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLogs) matches(l *domain.TicketLog, filter repository.LogFilter) bool {
	if filter.TicketID != nil && l.TicketID != *filter.TicketID {
		return false
	}
	if filter.DateFrom != nil && l.CreatedAt.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && l.CreatedAt.After(*filter.DateTo) {
		return false
	}
	if filter.Search != nil {
		needle := strings.ToLower(strings.TrimSpace(*filter.Search))
		title := ""
		if t, ok := r.s.tickets[l.TicketID]; ok {
			title = strings.ToLower(t.Title)
		}
		from := ""
		if l.FromValue != nil {
			from = strings.ToLower(*l.FromValue)
		}
		if !strings.Contains(title, needle) &&
			!strings.Contains(from, needle) &&
			!strings.Contains(strings.ToLower(l.ToValue), needle) {
			return false
		}
	}
	return true
}

func (r *memLogs) filtered(filter repository.LogFilter) []*domain.TicketLog {
	var result []*domain.TicketLog
	for _, l := range r.s.logs {
		if r.matches(l, filter) {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *memLogs) ListWithFilter(_ context.Context, filter repository.LogFilter) ([]repository.LogDetail, error) {
	matched := r.filtered(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	var result []repository.LogDetail
	for _, l := range matched {
		detail := repository.LogDetail{TicketLog: *l}
		if t, ok := r.s.tickets[l.TicketID]; ok {
			title, status, priority := t.Title, string(t.Status), string(t.Priority)
			detail.TicketTitle = &title
			detail.TicketStatus = &status
			detail.TicketPriority = &priority
		}
		if l.ActorID != nil {
			if u, ok := r.s.users[*l.ActorID]; ok {
				name, email := u.Name, u.Email
				detail.ActorName = &name
				detail.ActorEmail = &email
			}
		}
		result = append(result, detail)
	}
	return result, nil
}

func (r *memLogs) CountWithFilter(_ context.Context, filter repository.LogFilter) (int, error) {
	return len(r.filtered(filter)), nil
}

func (r *memLogs) Stats(_ context.Context) (repository.LogStats, error) {
	return repository.LogStats{Total: len(r.s.logs)}, nil
}

func (r *memLogs) CountTicketsReaching(_ context.Context, toValue string, day time.Time) (int, error) {
	seen := make(map[string]struct{})
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	for _, l := range r.s.logs {
		if l.ToValue != toValue {
			continue
		}
		if l.CreatedAt.Before(dayStart) || !l.CreatedAt.Before(dayStart.Add(24*time.Hour)) {
			continue
		}
		seen[l.TicketID] = struct{}{}
	}
	return len(seen), nil
}

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	user.ID = r.s.newID("user")
	now := r.s.tick()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// captureDispatcher records published events synchronously.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, e := range d.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

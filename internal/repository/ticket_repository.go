package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ticketd/ticketd/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Soft-deleted rows
// are invisible to every method.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByIDForUpdate takes a row lock; callers must hold a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	// NextOwnerSequence serializes per-owner numbering with an advisory
	// transaction lock held across the max-lookup; callers must hold a
	// transaction and keep it open through the subsequent Create.
	NextOwnerSequence(ctx context.Context, ownerID string) (int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	ListQueue(ctx context.Context) ([]domain.Ticket, error)
	QueueHead(ctx context.Context, limit int) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, statuses ...domain.TicketStatus) (int, error)
	SoftDelete(ctx context.Context, id string) error
}

const ticketColumns = `id, owner_user_id, owner_sequence_number, title, description, category,
               priority, status, created_at, updated_at, deleted_at`

// triageOrder is the queue ordering: priority high before medium before
// low, oldest first within the same priority.
const triageOrder = `
        ORDER BY CASE priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END ASC,
                 created_at ASC`

type ticketRepository struct {
	db DBTX
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (owner_user_id, owner_sequence_number, title, description, category, priority, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.OwnerID,
		ticket.OwnerSequence,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5, updated_at=NOW()
        WHERE id=$6 AND deleted_at IS NULL
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE id=$1 AND deleted_at IS NULL`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE id=$1 AND deleted_at IS NULL
        FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.OwnerID,
		&ticket.OwnerSequence,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) NextOwnerSequence(ctx context.Context, ownerID string) (int, error) {
	// The advisory lock is transaction-scoped: it releases on commit or
	// rollback, covering the gap between the max lookup and the insert.
	// Soft-deleted tickets keep their number, so gaps only appear when a
	// row is destroyed outright.
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('ticket_owner:' || $1, 0))`, ownerID); err != nil {
		return 0, err
	}
	var next int
	const query = `SELECT COALESCE(MAX(owner_sequence_number), 0) + 1 FROM tickets WHERE owner_user_id=$1`
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE owner_user_id=$1 AND deleted_at IS NULL
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListQueue(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE status IN ('open','in_progress') AND deleted_at IS NULL` + triageOrder
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) QueueHead(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE status IN ('open','in_progress') AND deleted_at IS NULL` + triageOrder + `
        LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, statuses ...domain.TicketStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE status = ANY($1) AND deleted_at IS NULL`
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var count int
	if err := r.db.QueryRow(ctx, query, values).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE tickets SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.OwnerID,
			&ticket.OwnerSequence,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.DeletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ticketd/ticketd/internal/domain"
)

// LogFilter captures activity log query parameters.
type LogFilter struct {
	TicketID *string
	DateFrom *time.Time
	DateTo   *time.Time
	// Search matches from/to values and the owning ticket's title.
	Search *string
	Limit  int
	Offset int
}

// LogDetail is a log entry joined with its ticket and actor for
// reporting and export.
type LogDetail struct {
	domain.TicketLog
	TicketTitle    *string
	TicketStatus   *string
	TicketPriority *string
	ActorName      *string
	ActorEmail     *string
}

// LogStats aggregates activity volume for the admin dashboard.
type LogStats struct {
	Total     int
	Today     int
	ThisWeek  int
	ThisMonth int
}

// TicketLogRepository stores audit entries. Entries are append-only:
// there is no update or delete.
type TicketLogRepository interface {
	Create(ctx context.Context, entry *domain.TicketLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketLog, error)
	HasEntryWithValue(ctx context.Context, ticketID, toValue string) (bool, error)
	ListWithFilter(ctx context.Context, filter LogFilter) ([]LogDetail, error)
	CountWithFilter(ctx context.Context, filter LogFilter) (int, error)
	Stats(ctx context.Context) (LogStats, error)
	// CountTicketsReaching counts distinct tickets that logged a given
	// to-value on the given day.
	CountTicketsReaching(ctx context.Context, toValue string, day time.Time) (int, error)
}

type ticketLogRepository struct {
	db DBTX
}

func (r *ticketLogRepository) Create(ctx context.Context, entry *domain.TicketLog) error {
	const query = `
        INSERT INTO ticket_logs (ticket_id, actor_user_id, from_value, to_value)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.ActorID,
		entry.FromValue,
		entry.ToValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *ticketLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketLog, error) {
	const query = `
        SELECT id, ticket_id, actor_user_id, from_value, to_value, created_at
        FROM ticket_logs WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketLog
	for rows.Next() {
		var entry domain.TicketLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.FromValue,
			&entry.ToValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketLogRepository) HasEntryWithValue(ctx context.Context, ticketID, toValue string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM ticket_logs WHERE ticket_id=$1 AND to_value=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, ticketID, toValue).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func logFilterClauses(filter LogFilter, args *[]any) []string {
	clauses := []string{"1=1"}
	if filter.TicketID != nil {
		*args = append(*args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("l.ticket_id=$%d", len(*args)))
	}
	if filter.DateFrom != nil {
		*args = append(*args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("l.created_at >= $%d", len(*args)))
	}
	if filter.DateTo != nil {
		*args = append(*args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("l.created_at <= $%d", len(*args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		*args = append(*args, search)
		placeholder := fmt.Sprintf("$%d", len(*args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.title) LIKE %s OR LOWER(COALESCE(l.from_value,'')) LIKE %s OR LOWER(l.to_value) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return clauses
}

func (r *ticketLogRepository) ListWithFilter(ctx context.Context, filter LogFilter) ([]LogDetail, error) {
	args := []any{}
	clauses := logFilterClauses(filter, &args)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT l.id, l.ticket_id, l.actor_user_id, l.from_value, l.to_value, l.created_at,
               t.title, t.status, t.priority, u.name, u.email
        FROM ticket_logs l
        LEFT JOIN tickets t ON t.id = l.ticket_id
        LEFT JOIN users u ON u.id = l.actor_user_id
        WHERE %s
        ORDER BY l.created_at DESC, l.id DESC
        LIMIT %d OFFSET %d`, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LogDetail
	for rows.Next() {
		var detail LogDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.TicketID,
			&detail.ActorID,
			&detail.FromValue,
			&detail.ToValue,
			&detail.CreatedAt,
			&detail.TicketTitle,
			&detail.TicketStatus,
			&detail.TicketPriority,
			&detail.ActorName,
			&detail.ActorEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, rows.Err()
}

func (r *ticketLogRepository) CountWithFilter(ctx context.Context, filter LogFilter) (int, error) {
	args := []any{}
	clauses := logFilterClauses(filter, &args)

	query := fmt.Sprintf(`
        SELECT COUNT(*)
        FROM ticket_logs l
        LEFT JOIN tickets t ON t.id = l.ticket_id
        WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketLogRepository) Stats(ctx context.Context) (LogStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW())),
               COUNT(*) FILTER (WHERE created_at >= date_trunc('week', NOW())),
               COUNT(*) FILTER (WHERE created_at >= date_trunc('month', NOW()))
        FROM ticket_logs`
	var stats LogStats
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Today, &stats.ThisWeek, &stats.ThisMonth); err != nil {
		return LogStats{}, err
	}
	return stats, nil
}

func (r *ticketLogRepository) CountTicketsReaching(ctx context.Context, toValue string, day time.Time) (int, error) {
	const query = `
        SELECT COUNT(DISTINCT ticket_id) FROM ticket_logs
        WHERE to_value=$1 AND created_at >= date_trunc('day', $2::timestamptz)
          AND created_at < date_trunc('day', $2::timestamptz) + interval '1 day'`
	var count int
	if err := r.db.QueryRow(ctx, query, toValue, day).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

package service

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"github.com/ticketd/ticketd/internal/domain"
	"github.com/ticketd/ticketd/internal/repository"
	apperrors "github.com/ticketd/ticketd/pkg/util"
)

// exportRowCap bounds CSV exports the same way the activity log screen
// does, keeping a runaway export from streaming the whole table.
const exportRowCap = 5000

// AuditService answers activity log queries. The log itself is
// append-only; everything here is read-side glue.
type AuditService struct {
	store repository.Store
}

// NewAuditService constructs the service.
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// AuditQuery captures activity log filters and pagination.
type AuditQuery struct {
	TicketID *string
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *string
	Page     int
	PageSize int
}

// AuditPage is one page of filtered log entries plus the total count.
type AuditPage struct {
	Entries  []repository.LogDetail
	Total    int
	Page     int
	PageSize int
}

// ListForTicket returns a ticket's full trail in chronological order,
// failing with not-found when the ticket does not exist.
func (s *AuditService) ListForTicket(ctx context.Context, ticketID string) ([]domain.TicketLog, error) {
	if _, err := s.store.Tickets().GetByID(ctx, ticketID); err != nil {
		return nil, apperrors.MapError(mapTicketErr(err))
	}
	entries, err := s.store.Logs().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Query returns a filtered, paginated page of the global activity log,
// newest first.
func (s *AuditService) Query(ctx context.Context, q AuditQuery) (*AuditPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.LogFilter{
		TicketID: q.TicketID,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Search:   q.Search,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}

	entries, err := s.store.Logs().ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.store.Logs().CountWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &AuditPage{Entries: entries, Total: total, Page: page, PageSize: pageSize}, nil
}

// Stats returns aggregate activity counts.
func (s *AuditService) Stats(ctx context.Context) (repository.LogStats, error) {
	stats, err := s.store.Logs().Stats(ctx)
	if err != nil {
		return repository.LogStats{}, apperrors.MapError(err)
	}
	return stats, nil
}

// ExportCSV streams the filtered activity log as CSV.
func (s *AuditService) ExportCSV(ctx context.Context, q AuditQuery, w io.Writer) error {
	filter := repository.LogFilter{
		TicketID: q.TicketID,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Search:   q.Search,
		Limit:    exportRowCap,
	}
	entries, err := s.store.Logs().ListWithFilter(ctx, filter)
	if err != nil {
		return apperrors.MapError(err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "Date", "Time", "Ticket ID", "Ticket Title", "From Status", "To Status", "User", "User Email"}); err != nil {
		return err
	}
	for _, entry := range entries {
		row := []string{
			entry.ID,
			entry.CreatedAt.Format("2006-01-02"),
			entry.CreatedAt.Format("15:04:05"),
			entry.TicketID,
			stringOr(entry.TicketTitle, "N/A"),
			stringOr(entry.FromValue, "none"),
			entry.ToValue,
			stringOr(entry.ActorName, "System"),
			stringOr(entry.ActorEmail, "N/A"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func stringOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

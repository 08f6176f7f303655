package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketd/ticketd/internal/api/dto"
	"github.com/ticketd/ticketd/internal/service"
)

// AuditLogsHandler serves the admin activity log.
type AuditLogsHandler struct {
	audit *service.AuditService
}

// NewAuditLogsHandler constructs handler.
func NewAuditLogsHandler(auditService *service.AuditService) *AuditLogsHandler {
	return &AuditLogsHandler{audit: auditService}
}

// List GET /admin/api/tickets/logs.
func (h *AuditLogsHandler) List(c *fiber.Ctx) error {
	query := parseAuditQuery(c)
	page, err := h.audit.Query(c.Context(), query)
	if err != nil {
		return err
	}
	stats, err := h.audit.Stats(c.Context())
	if err != nil {
		return err
	}

	resp := dto.ActivityLogPage{
		Logs:     make([]dto.ActivityLogItem, 0, len(page.Entries)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Stats: dto.ActivityLogStats{
			Total:     stats.Total,
			Today:     stats.Today,
			ThisWeek:  stats.ThisWeek,
			ThisMonth: stats.ThisMonth,
		},
	}
	for i := range page.Entries {
		resp.Logs = append(resp.Logs, dto.NewActivityLogItem(&page.Entries[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Export GET /admin/api/tickets/logs/export.
func (h *AuditLogsHandler) Export(c *fiber.Ctx) error {
	query := parseAuditQuery(c)

	filename := fmt.Sprintf("activity-logs-%s.csv", time.Now().Format("2006-01-02-150405"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return h.audit.ExportCSV(c.Context(), query, c.Response().BodyWriter())
}

func parseAuditQuery(c *fiber.Ctx) service.AuditQuery {
	query := service.AuditQuery{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if ticketID := strings.TrimSpace(c.Query("ticket_id")); ticketID != "" {
		query.TicketID = &ticketID
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query.Search = &search
	}
	if from := parseDate(c.Query("date_from")); from != nil {
		query.DateFrom = from
	}
	if to := parseDate(c.Query("date_to")); to != nil {
		// Inclusive day bound.
		end := to.Add(24*time.Hour - time.Nanosecond)
		query.DateTo = &end
	}
	return query
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &parsed
}

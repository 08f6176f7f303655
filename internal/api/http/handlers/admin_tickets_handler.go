package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketd/ticketd/internal/api/dto"
	"github.com/ticketd/ticketd/internal/auth"
	"github.com/ticketd/ticketd/internal/domain"
	"github.com/ticketd/ticketd/internal/service"
	apperrors "github.com/ticketd/ticketd/pkg/util"
)

// AdminTicketsHandler manages the triage surface.
type AdminTicketsHandler struct {
	tickets *service.TicketService
	audit   *service.AuditService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService, auditService *service.AuditService) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: ticketService, audit: auditService}
}

// Queue GET /admin/api/tickets/queue.
func (h *AdminTicketsHandler) Queue(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListQueue(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DashboardStats GET /admin/api/dashboard/stats.
func (h *AdminTicketsHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.tickets.DashboardStats(c.Context())
	if err != nil {
		return err
	}
	resp := dto.DashboardStatsResponse{
		Total:         stats.Total,
		Open:          stats.Open,
		InProgress:    stats.InProgress,
		ResolvedToday: stats.ResolvedToday,
		RecentTickets: make([]dto.TicketSummary, 0, len(stats.RecentTickets)),
	}
	for i := range stats.RecentTickets {
		resp.RecentTickets = append(resp.RecentTickets, dto.NewTicketSummary(&stats.RecentTickets[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Show GET /admin/api/tickets/:id. Opening the detail records the
// one-time first-viewed marker for still-open tickets.
func (h *AdminTicketsHandler) Show(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	actor := principalUser(principal)

	ticket, err := h.tickets.MarkAsFirstViewed(c.Context(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	logs, err := h.audit.ListForTicket(c.Context(), ticket.ID)
	if err != nil {
		return err
	}

	detail := dto.TicketDetailResponse{
		TicketSummary: dto.NewTicketSummary(ticket),
		Description:   ticket.Description,
		Logs:          make([]dto.TicketLogItem, 0, len(logs)),
	}
	for i := range logs {
		detail.Logs = append(detail.Logs, dto.NewTicketLogItem(&logs[i]))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// ChangeStatus POST /admin/api/tickets/:id/status.
func (h *AdminTicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ToStatus == "" {
		return apperrors.NewValidationError("to_status required", nil)
	}
	ticket, err := h.tickets.ChangeStatus(c.Context(), c.Params("id"), req.ToStatus, principalUser(principal))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// SetPriority POST /admin/api/tickets/:id/priority.
func (h *AdminTicketsHandler) SetPriority(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.SetPriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Priority == "" {
		return apperrors.NewValidationError("priority required", nil)
	}
	ticket, err := h.tickets.SetPriority(c.Context(), c.Params("id"), req.Priority, principalUser(principal))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

func principalUser(principal *auth.Principal) *domain.User {
	if principal == nil {
		return nil
	}
	return principal.User
}

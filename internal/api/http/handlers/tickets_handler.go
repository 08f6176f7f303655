package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketd/ticketd/internal/api/dto"
	"github.com/ticketd/ticketd/internal/auth"
	"github.com/ticketd/ticketd/internal/service"
	apperrors "github.com/ticketd/ticketd/pkg/util"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	audit   *service.AuditService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, auditService *service.AuditService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, audit: auditService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Create(c.Context(), principal.User, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	tickets, err := h.tickets.ListByOwner(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.OwnerID != principal.User.ID && !principal.Admin() {
		return apperrors.NewForbidden("you can only view your own tickets")
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

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.OwnerID != principal.User.ID {
		return apperrors.NewForbidden("you can only delete your own tickets")
	}
	if err := h.tickets.Delete(c.Context(), ticket.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

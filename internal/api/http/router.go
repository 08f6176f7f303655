package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketd/ticketd/internal/api/http/handlers"
	"github.com/ticketd/ticketd/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuditLogs      *handlers.AuditLogsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireUser())
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)

	admin := app.Group("/admin/api", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/tickets/queue", cfg.AdminTickets.Queue)
	admin.Get("/dashboard/stats", cfg.AdminTickets.DashboardStats)
	admin.Get("/tickets/logs", cfg.AuditLogs.List)
	admin.Get("/tickets/logs/export", cfg.AuditLogs.Export)
	admin.Get("/tickets/:id", cfg.AdminTickets.Show)
	admin.Post("/tickets/:id/status", cfg.AdminTickets.ChangeStatus)
	admin.Post("/tickets/:id/priority", cfg.AdminTickets.SetPriority)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportec/triage-service/internal/api/http/handlers"
	"github.com/soportec/triage-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Triage         *handlers.TriageHandler
	Technicians    *handlers.TechniciansHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	// Registered before :id so the literal segment wins.
	tickets.Get("/pending", cfg.Tickets.ListPending)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)

	// Manual assignment is an operator override, admins only.
	tickets.Get("/:id/assignment", auth.RequireAdmin(), cfg.Triage.PrepareAssignment)
	tickets.Post("/:id/assignment", auth.RequireAdmin(), cfg.Triage.ConfirmAssignment)
	tickets.Get("/:id/assignments", cfg.Triage.ListAssignments)

	triage := protected.Group("/triage")
	triage.Post("/run", auth.RequireAdmin(), cfg.Triage.RunBatch)
	triage.Get("/stats", cfg.Triage.GetStats)
	triage.Get("/recent", cfg.Triage.RecentAssignments)

	protected.Get("/technicians", cfg.Technicians.ListTechnicians)
	protected.Post("/technicians", auth.RequireAdmin(), cfg.Technicians.CreateTechnician)
	protected.Patch("/technicians/:id/availability", auth.RequireAdmin(), cfg.Technicians.UpdateAvailability)
	protected.Get("/categories", cfg.Catalog.ListCategories)
	protected.Get("/slas", cfg.Catalog.ListSLAs)
}

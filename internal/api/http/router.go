package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workforce-service/internal/api/http/handlers"
	"github.com/spec-kit/workforce-service/internal/auth"
	"github.com/spec-kit/workforce-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Territories    *handlers.TerritoryHandler
	Teams          *handlers.TeamHandler
	Assignments    *handlers.AssignmentHandler
	Events         *handlers.EventsHandler
	Jobs           *handlers.JobsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Reads are open to any signed-in staff
// member; roster changes need a manager. Territories, event ingest and jobs
// need an admin.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	managers := auth.RequireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleBrokerManager)
	admins := auth.RequireStaffRole(domain.StaffRoleAdmin)

	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	staff := protected.Group("/staff")
	staff.Get("/", cfg.Staff.List)
	staff.Get("/:id", cfg.Staff.Get)
	staff.Post("/", managers, cfg.Staff.Hire)
	staff.Post("/:id/status", managers, cfg.Staff.ChangeStatus)
	staff.Put("/:id/workload", managers, cfg.Staff.UpdateWorkload)
	staff.Put("/:id/licenses", managers, cfg.Staff.UpdateLicenses)
	staff.Put("/:id/territories", managers, cfg.Territories.AssignStaff)

	territories := protected.Group("/territories")
	territories.Get("/", cfg.Territories.List)
	territories.Get("/:id", cfg.Territories.Get)
	territories.Post("/", admins, cfg.Territories.Create)
	territories.Post("/reconcile", admins, cfg.Territories.Reconcile)

	teams := protected.Group("/teams")
	teams.Get("/", cfg.Teams.List)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Post("/", managers, cfg.Teams.Create)
	teams.Post("/:id/members", managers, cfg.Teams.AddMember)
	teams.Delete("/:id/members/:staffId", managers, cfg.Teams.RemoveMember)

	protected.Post("/assignments/recommend", cfg.Assignments.Recommend)
	protected.Post("/events", admins, cfg.Events.Ingest)

	jobs := protected.Group("/admin/jobs", admins)
	jobs.Post("/license-sweep", cfg.Jobs.LicenseSweep)
	jobs.Post("/territory-reconcile", cfg.Jobs.TerritoryReconcile)
}

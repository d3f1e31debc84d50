package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-scheduler/internal/api/http/handlers"
	"github.com/spec-kit/shift-scheduler/internal/auth"
	"github.com/spec-kit/shift-scheduler/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Departments    *handlers.DepartmentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Accounts.SignUp)
	authGroup.Post("/signup/worker", cfg.Accounts.SignUpWorker)
	authGroup.Post("/signin", cfg.Accounts.SignIn)
	authGroup.Post("/signout", cfg.AuthMiddleware.Handle, cfg.Accounts.SignOut)

	app.Get("/profiles/me", cfg.AuthMiddleware.Handle, cfg.Accounts.Me)
	app.Get("/profiles/pending", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdmin, domain.RoleDeveloper), cfg.Accounts.Pending)

	departments := app.Group("/departments", cfg.AuthMiddleware.Handle, auth.RequireRole())
	departments.Get("/", cfg.Departments.List)
	departments.Get("/mine", cfg.Departments.Mine)
	departments.Get("/lookup", cfg.Departments.Lookup)
	departments.Get("/:id", cfg.Departments.Get)

	managers := auth.RequireRole(domain.RoleOwner, domain.RoleAdmin, domain.RoleDeveloper)
	departments.Get("/:id/members", managers, cfg.Accounts.DepartmentMembers)
	departments.Post("/", managers, cfg.Departments.Create)
	departments.Put("/:id", managers, cfg.Departments.Update)
	departments.Delete("/:id", managers, cfg.Departments.Delete)
}

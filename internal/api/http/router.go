package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locker-service/internal/api/http/handlers"
	"github.com/spec-kit/locker-service/internal/auth"
	"github.com/spec-kit/locker-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Lockers        *handlers.LockersHandler
	Rentals        *handlers.RentalsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware fiber.Handler
}

// RegisterRoutes wires HTTP routes. Capability guards reject early; services
// re-check the caller before touching state.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware, auth.RequireAuthenticated(), cfg.Auth.Logout)

	protected := app.Group("", cfg.AuthMiddleware, auth.RequireAuthenticated())

	protected.Get("/users", auth.RequireCapability(domain.CapManageUsers), cfg.Auth.ListUsers)

	lockers := protected.Group("/lockers")
	lockers.Get("/", auth.RequireCapability(domain.CapViewLockers), cfg.Lockers.List)
	lockers.Put("/:id/status", auth.RequireCapability(domain.CapManageLockers), cfg.Lockers.UpdateStatus)
	lockers.Post("/:id/maintenance", auth.RequireCapability(domain.CapReportMaintenance), cfg.Lockers.ReportMaintenance)
	lockers.Post("/:id/maintenance/resolve", auth.RequireCapability(domain.CapManageLockers), cfg.Lockers.ResolveMaintenance)
	lockers.Get("/:id/rentals", auth.RequireCapability(domain.CapViewLockers), cfg.Lockers.RentalHistory)

	rentals := protected.Group("/rentals")
	rentals.Get("/active", cfg.Rentals.Active)
	rentals.Get("/history", cfg.Rentals.History)
	rentals.Post("/", auth.RequireCapability(domain.CapRent), cfg.Rentals.Book)
	rentals.Post("/:id/release", cfg.Rentals.Release)
	rentals.Post("/:id/cancel", cfg.Rentals.Cancel)

	wallet := protected.Group("/wallet")
	wallet.Get("/", cfg.Rentals.Wallet)
	wallet.Post("/topup", auth.RequireCapability(domain.CapRent), cfg.Rentals.TopUp)

	protected.Get("/dashboard/stats", auth.RequireCapability(domain.CapViewDashboard), cfg.Dashboard.Stats)
}

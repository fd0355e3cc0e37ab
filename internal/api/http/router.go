package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stayhub/service-desk/internal/api/http/handlers"
	"github.com/stayhub/service-desk/internal/auth"
	"github.com/stayhub/service-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Bookings       *handlers.BookingsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Users.ChangePassword)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	users.Get("/me", cfg.Users.Me)
	users.Post("/staff", auth.RequireRole(domain.RoleAdmin), cfg.Users.CreateStaff)

	bookings := app.Group("/bookings", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	bookings.Get("/mine", cfg.Bookings.Mine)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/mine", cfg.Tickets.Mine)
	tickets.Get("/assigned", auth.RequireStaff(), cfg.Tickets.Assigned)
	tickets.Get("/stats", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Delete)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin, domain.RoleReception), cfg.Tickets.Assign)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
}

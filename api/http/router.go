package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pathcraft/backend/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(
	app *fiber.App,
	auth *handlers.AuthHandler,
	health *handlers.HealthHandler,
	profile *handlers.ProfileHandler,
	plans *handlers.PlanHandler,
	steps *handlers.StepsHandler,
	notifications *handlers.NotificationsHandler,
	authMW fiber.Handler,
) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", auth.Register)
	a.Post("/login", auth.Login)

	// Career profile
	pr := v1.Group("/profile", authMW)
	pr.Get("/", profile.Get)
	pr.Put("/", profile.Update)

	// Plans: cache-or-generate, history, steps with progress
	pl := v1.Group("/plans", authMW)
	pl.Post("/", plans.GetOrCreate)
	pl.Get("/", plans.History)
	pl.Get("/:id", plans.Get)
	pl.Get("/:id/steps", steps.ListForPlan)

	// Step lifecycle transitions
	st := v1.Group("/steps", authMW)
	st.Post("/:id/start", steps.Start)
	st.Post("/:id/complete", steps.Complete)
	st.Post("/:id/reset", steps.Reset)

	// Admin-only surface
	ad := v1.Group("/admin", authMW)
	ad.Get("/users/:id/plans", plans.AdminHistory)

	// Notifications
	n := v1.Group("/notifications", authMW)
	n.Get("/", notifications.List)
	n.Get("/unread", notifications.Unread)
	n.Post("/:id/read", notifications.MarkRead)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app. authMW validates the
// bearer token; adminMW additionally requires the admin claim.
func Register(
	app *fiber.App,
	authMW fiber.Handler,
	adminMW fiber.Handler,
	auth *handlers.AuthHandler,
	health *handlers.HealthHandler,
	conversations *handlers.ConversationHandler,
	feedback *handlers.FeedbackHandler,
	catalog *handlers.CatalogHandler,
	settings *handlers.SettingsHandler,
	intents *handlers.IntentHandler,
	admin *handlers.AdminHandler,
) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", auth.Register)
	a.Post("/login", auth.Login)

	// Conversations and the chat flow
	cg := v1.Group("/conversations", authMW)
	cg.Post("/", conversations.Create)
	cg.Get("/", conversations.List)
	cg.Get("/:id", conversations.Get)
	cg.Patch("/:id", conversations.Update)
	cg.Delete("/:id", conversations.Delete)
	cg.Post("/:id/archive", conversations.Archive)
	cg.Get("/:id/messages", conversations.Messages)
	cg.Post("/:id/messages", conversations.Send)
	cg.Post("/:id/messages/:messageId/feedback", feedback.Rate)
	cg.Get("/:id/feedback", feedback.List)

	// Model catalog and provider health
	v1.Get("/models", authMW, catalog.Models)
	v1.Get("/providers/status", authMW, catalog.Status)

	// Bot settings: read for everyone signed in, write for admins
	v1.Get("/settings", authMW, settings.Get)
	v1.Put("/settings", authMW, adminMW, settings.Update)

	ag := v1.Group("/admin", authMW, adminMW)
	ag.Get("/audit", admin.Audit)
	ag.Get("/conversations", admin.Conversations)
	ag.Get("/intents", intents.List)
	ag.Put("/intents/:key", intents.Upsert)
	ag.Delete("/intents/:key", intents.Delete)
}

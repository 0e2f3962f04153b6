package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/handlers"
	"github.com/panelkit/panelkit/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	// General rate limiter: 60 req/min per IP
	app.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	app.Get("/health", healthHandler.Check)

	// Auth endpoints get a stricter limit: 10 req/min per IP
	auth := app.Group("/authorisation")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/google-auth", authHandler.GoogleAuth)
	auth.Post("/microsoft-auth", authHandler.MicrosoftAuth)

	// Verify is the one gated read: the client session gate calls it on
	// page load to decide whether protected views may render.
	auth.Get("/verify", middleware.SessionRequired(cfg), authHandler.Verify)

	// Payment provider callbacks (no session; the provider is not a user)
	app.Post("/payments/webhook", webhookHandler.HandlePayment)
}

package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/handler"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Channel   *handler.ChannelHandler
	Analytics *handler.AnalyticsHandler
	Runs      *handler.RunsHandler
	Export    *handler.ExportHandler
	Health    *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics sit outside the API group and its rate limit
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api", middleware.NewAPIRateLimiter().Handler())

	// Channel routes
	api.Get("/channels", h.Channel.List)
	api.Post("/channels", h.Channel.Add)
	api.Patch("/channels/:channelId", h.Channel.SetActive)
	api.Get("/channels/:channelId/videos", h.Analytics.ChannelVideos)

	// Analytics routes
	api.Get("/analytics/engagement", h.Analytics.Engagement)
	api.Get("/analytics/top-videos", h.Analytics.TopVideos)
	api.Get("/analytics/brands", h.Analytics.Brands)
	api.Get("/analytics/categories", h.Analytics.Categories)
	api.Get("/analytics/questions", h.Analytics.Questions)

	// Run routes
	api.Get("/runs", h.Runs.List)
	api.Get("/runs/:runId", h.Runs.Get)

	// Export routes (tighter limit, the CSV walks full history)
	api.Get("/export/engagement.csv", h.Export.Engagement, middleware.NewExportRateLimiter().Handler())
}

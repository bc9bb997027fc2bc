package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sms-marks-api/internal/config"
	"github.com/noah-isme/sms-marks-api/internal/handler"
	"github.com/noah-isme/sms-marks-api/internal/middleware"
	"github.com/noah-isme/sms-marks-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	MarkHandler         *handler.MarkHandler
	ResultHandler       *handler.ResultHandler
	RosterHandler       *handler.RosterHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.MarkHandler != nil {
		marks := app.Group("/api/marks", jwtMiddleware)

		staffOnly := middleware.RequireRole("admin", "teacher")
		adminOnly := middleware.RequireRole("admin")

		// Entry
		marks.Post("/", staffOnly, deps.MarkHandler.Save)
		marks.Post("/bulk", staffOnly, middleware.RateLimit("marks_bulk", 10, time.Minute), deps.MarkHandler.SaveBulk)

		// Publication
		marks.Put("/publish", adminOnly, deps.MarkHandler.Publish)
		marks.Put("/unpublish", adminOnly, deps.MarkHandler.Unpublish)

		if deps.ResultHandler != nil {
			marks.Get("/class/:classId", staffOnly, deps.ResultHandler.ClassMarks)
			marks.Get("/student/:studentId", deps.ResultHandler.StudentMarks)
			marks.Get("/result-sheet/:classId", deps.ResultHandler.ResultSheet)
			marks.Get("/stats/:classId", staffOnly, deps.ResultHandler.Stats)
		}

		if deps.RosterHandler != nil {
			marks.Get("/class/:classId/students", staffOnly, deps.RosterHandler.EntryGrid)
			marks.Get("/admit-card/:classId", staffOnly, deps.RosterHandler.AdmitCards)
		}

		// Keep the id routes last so the literal segments above win.
		marks.Get("/:id", deps.MarkHandler.Get)
		marks.Delete("/:id", adminOnly, deps.MarkHandler.Delete)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}
}

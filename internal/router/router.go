package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/studioflow/studioflow-api/internal/config"
	"github.com/studioflow/studioflow-api/internal/handler"
	"github.com/studioflow/studioflow-api/internal/middleware"
	"github.com/studioflow/studioflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StudentHandler    *handler.StudentHandler
	TemplateHandler   *handler.TemplateHandler
	CourseHandler     *handler.CourseHandler
	EnrollmentHandler *handler.EnrollmentHandler
	InstanceHandler   *handler.InstanceHandler
	AttendanceHandler *handler.AttendanceHandler
	ScheduleHandler   *handler.ScheduleHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
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

	if cfg.RateLimitMax > 0 {
		api.Use(middleware.RateLimit("api", cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	staffOnly := middleware.RequireRole("owner", "staff", "teacher")

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware, staffOnly)
		deps.StudentHandler.Register(students)
	}

	if deps.TemplateHandler != nil {
		templates := api.Group("/templates", jwtMiddleware, staffOnly)
		deps.TemplateHandler.Register(templates)
	}

	if deps.CourseHandler != nil {
		courses := api.Group("/courses", jwtMiddleware, staffOnly)
		deps.CourseHandler.Register(courses)

		if deps.EnrollmentHandler != nil {
			enrollments := api.Group("/courses/:courseId/enrollments", jwtMiddleware, staffOnly)
			deps.EnrollmentHandler.Register(enrollments)
		}
	}

	if deps.InstanceHandler != nil {
		instances := api.Group("/instances", jwtMiddleware, staffOnly)
		deps.InstanceHandler.Register(instances)

		if deps.AttendanceHandler != nil {
			attendance := api.Group("/instances/:instanceId/attendance", jwtMiddleware, staffOnly)
			deps.AttendanceHandler.Register(attendance)
		}
	}

	if deps.ScheduleHandler != nil {
		schedule := api.Group("/schedule", jwtMiddleware, staffOnly)
		deps.ScheduleHandler.Register(schedule)
	}
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/debtcleaner/debtcleaner-api/internal/config"
	"github.com/debtcleaner/debtcleaner-api/internal/handler"
	"github.com/debtcleaner/debtcleaner-api/internal/middleware"
	"github.com/debtcleaner/debtcleaner-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	CourseHandler     *handler.CourseHandler
	ProjectHandler    *handler.ProjectHandler
	SubmissionHandler *handler.SubmissionHandler
	CommentHandler    *handler.CommentHandler
	GitHubHandler     *handler.GitHubHandler
	Authenticate      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	authenticate := deps.Authenticate
	if authenticate == nil {
		authenticate = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		// Code requests send email, keep the endpoint from being hammered.
		auth.Use("/login/code", middleware.RateLimit("login_code", 5, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", authenticate)
		deps.UserHandler.Register(users)
	}

	if deps.CourseHandler != nil {
		courses := api.Group("/courses", authenticate)
		deps.CourseHandler.Register(courses)
	}

	if deps.ProjectHandler != nil {
		projects := api.Group("/projects", authenticate)
		deps.ProjectHandler.Register(projects)

		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterProjectRoutes(projects)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", authenticate)
		deps.SubmissionHandler.Register(submissions)

		if deps.CommentHandler != nil {
			deps.CommentHandler.Register(submissions)
		}
	}

	if deps.GitHubHandler != nil {
		github := api.Group("/github", authenticate)
		deps.GitHubHandler.Register(github)
	}
}

package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"postpilot/internal/gateway"
	"postpilot/internal/handlers"
	"postpilot/internal/middleware"
	"postpilot/internal/onboarding"
	"postpilot/internal/session"
	"postpilot/internal/store"
)

// Deps holds shared dependencies to inject into handlers.
type Deps struct {
	Gateway  *gateway.Client
	Sessions *session.Provider
	Store    store.SelectionStore
	Planner  *onboarding.Planner

	PollInterval    time.Duration
	PollMaxAttempts int
}

// Register mounts all HTTP routes in one place. API routes first so the
// workspace-scoped catch-all cannot shadow them.
func Register(app *fiber.App, d Deps) {
	app.Use(middleware.WithSession(d.Sessions))

	api := app.Group("/api", middleware.RequireSession())

	// Workspaces
	api.Get("/workspaces", handlers.GetStructureHandler(d.Gateway))
	api.Post("/workspaces/select", handlers.SelectWorkspaceHandler(d.Gateway, d.Store))
	api.Get("/context", handlers.GetContextHandler(d.Gateway, d.Store))
	api.Get("/me", handlers.WhoAmI(d.Store))

	// Onboarding
	api.Get("/onboarding/next", handlers.NextStepHandler(d.Planner))

	// Posts
	api.Post("/posts/publish", handlers.PublishPostsHandler(d.Gateway, d.PollInterval, d.PollMaxAttempts))
	api.Get("/posts/:post_id/status", handlers.GetPostStatusHandler(d.Gateway))

	// Invites
	api.Post("/invites/accept", handlers.AcceptInviteHandler(d.Gateway))

	// Workspace-scoped pages. The middleware resolves the workspace from
	// the path segment, query parameter, or persisted selection.
	workspace := app.Group("/:workspace", middleware.WithWorkspaceContext(d.Gateway, d.Store))
	workspace.Get("/calendar", handlers.CalendarHandler(d.Gateway))
}

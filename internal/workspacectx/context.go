package workspacectx

import (
	"github.com/gofiber/fiber/v2"

	"postpilot/model"
)

// LocalsKey is where the middleware stores the request's workspace context.
const LocalsKey = "workspace_context"

// Context is the request-scoped tenant context handlers consume. Generation
// increases with every selection change, so a caller holding a response can
// tell it was produced under an older context and discard it.
type Context struct {
	Workspace  *model.Workspace
	Source     Source
	Generation int64
	Notice     string
	Deferred   bool
}

// Identifier returns what goes into the workspace header for backend calls,
// or "" when no workspace is resolved.
func (c *Context) Identifier() string {
	if c == nil || c.Workspace == nil {
		return ""
	}
	return c.Workspace.Identifier()
}

// FromLocals pulls the context the middleware stored, if any.
func FromLocals(c *fiber.Ctx) (*Context, bool) {
	v, ok := c.Locals(LocalsKey).(*Context)
	return v, ok && v != nil
}

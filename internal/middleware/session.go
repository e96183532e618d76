package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"postpilot/internal/session"
	"postpilot/model"
)

const localsSessionKey = "session"

// WithSession resolves the browser's session, if any, and stores it in
// Locals. Requests without a resolvable session pass through anonymous;
// endpoints that need identity use RequireSession or rely on the gateway's
// short-circuit.
func WithSession(p *session.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(session.CookieName)
		if token == "" {
			// Bearer header as a fallback for non-browser callers.
			auth := c.Get("Authorization")
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}
		if token == "" {
			return c.Next()
		}

		sess, err := p.Lookup(c.Context(), token)
		if err != nil {
			// Session service unreachable: treat as anonymous rather
			// than failing the page.
			return c.Next()
		}
		if sess != nil {
			c.Locals(localsSessionKey, sess)
		}
		return c.Next()
	}
}

// SessionFromLocals returns the request's session or nil.
func SessionFromLocals(c *fiber.Ctx) *model.Session {
	if v, ok := c.Locals(localsSessionKey).(*model.Session); ok {
		return v
	}
	return nil
}

// RequireSession rejects anonymous requests to API endpoints.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFromLocals(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		return c.Next()
	}
}

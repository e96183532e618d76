package handlers

import (
	"github.com/gofiber/fiber/v2"

	"postpilot/internal/middleware"
	"postpilot/internal/store"
)

// WhoAmI shows the current logged-in user and their persisted selection.
func WhoAmI(st store.SelectionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFromLocals(c)
		sel, _ := st.Get(c.Context(), sess.User.ID)
		return c.JSON(fiber.Map{
			"user":      sess.User,
			"selection": sel,
		})
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"postpilot/dto"
	"postpilot/internal/middleware"
	"postpilot/internal/onboarding"
)

// NextStepHandler godoc
// @Summary      Compute the next onboarding step
// @Description  Inspect backend-reported progress and return the single next step; a canceled checkout restarts without the session id
// @Tags         onboarding
// @Produce      json
// @Security     BearerAuth
// @Param        session_id  query  string  false  "Checkout session identifier"
// @Param        canceled    query  string  false  "Set when the user backed out of checkout"
// @Success      200  {object}  dto.NextStepResponse
// @Router       /api/onboarding/next [get]
func NextStepHandler(p *onboarding.Planner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFromLocals(c)

		checkoutID := c.Query("session_id")
		notice := ""
		if c.Query("canceled") == "true" {
			// A canceled checkout never verifies; drop the id instead of
			// querying billing with it.
			checkoutID = ""
			notice = "Checkout canceled"
		}

		next, err := p.NextStep(c.Context(), sess, checkoutID)
		if err != nil {
			return err
		}
		return c.JSON(dto.NextStepResponse{Next: next, Notice: notice})
	}
}

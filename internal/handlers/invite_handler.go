package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"postpilot/dto"
	"postpilot/internal/gateway"
	"postpilot/internal/middleware"
)

// InviteCookie carries an accepted invite token. HttpOnly, 24 hours.
const InviteCookie = "pp_invite"

// AcceptInviteHandler godoc
// @Summary      Accept a workspace invite
// @Description  Forward the invite token to the backend and promote it to an httpOnly cookie with a 24-hour expiry
// @Tags         invites
// @Produce      json
// @Security     BearerAuth
// @Param        token  query  string  true  "Invite token"
// @Success      200  {object}  dto.InviteAcceptResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invites/accept [post]
func AcceptInviteHandler(gw *gateway.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "token is required"})
		}

		sess := middleware.SessionFromLocals(c)
		res, err := gw.Call(c.Context(), sess, "/invites/accept", gateway.Options{
			Method: fiber.MethodPost,
			Body:   fiber.Map{"token": token},
		})
		if err != nil {
			return err
		}
		if !res.Success {
			return gatewayError(c, res)
		}

		c.Cookie(&fiber.Cookie{
			Name:     InviteCookie,
			Value:    token,
			Expires:  time.Now().Add(24 * time.Hour),
			HTTPOnly: true,
			Path:     "/",
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(dto.InviteAcceptResponse{Accepted: true, Toast: "Invite accepted"})
	}
}

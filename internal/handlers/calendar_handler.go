package handlers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"postpilot/dto"
	"postpilot/internal/gateway"
	"postpilot/internal/middleware"
	"postpilot/internal/workspacectx"
)

const dateLayout = "2006-01-02"

// CalendarHandler godoc
// @Summary      Fetch the scheduled-post calendar for a date range
// @Description  Workspace-scoped; the range defaults to the current month. Responses carry the context generation so stale prefetches can be discarded.
// @Tags         calendar
// @Produce      json
// @Security     BearerAuth
// @Param        workspace  path   string  true   "Workspace slug or UUID"
// @Param        from       query  string  false  "Range start (YYYY-MM-DD)"
// @Param        to         query  string  false  "Range end (YYYY-MM-DD)"
// @Success      200  {object}  object
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{workspace}/calendar [get]
func CalendarHandler(gw *gateway.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wctx, ok := workspacectx.FromLocals(c)
		if !ok || wctx.Workspace == nil {
			if ok && wctx.Deferred {
				return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Message: "workspace data is still loading, retry shortly"})
			}
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Message: "no workspace"})
		}

		from, to, err := dateRange(c.Query("from"), c.Query("to"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: err.Error()})
		}

		sess := middleware.SessionFromLocals(c)
		endpoint := fmt.Sprintf("/posts/calendar?from=%s&to=%s",
			url.QueryEscape(from.Format(dateLayout)),
			url.QueryEscape(to.Format(dateLayout)))

		res, err := gw.Call(c.Context(), sess, endpoint, gateway.Options{
			Workspace: wctx.Identifier(),
		})
		if err != nil {
			return err
		}
		if !res.Success {
			return gatewayError(c, res)
		}

		c.Set("x-context-generation", fmt.Sprintf("%d", wctx.Generation))
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(res.Data)
	}
}

// dateRange validates from/to, defaulting to the current month (UTC).
func dateRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).AddDate(0, 0, -1)

	var err error
	if fromRaw != "" {
		from, err = time.Parse(dateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", fromRaw)
		}
	}
	if toRaw != "" {
		to, err = time.Parse(dateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", toRaw)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"postpilot/dto"
	"postpilot/internal/gateway"
	"postpilot/internal/middleware"
	"postpilot/internal/poller"
	"postpilot/model"
)

type postStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// statusFetcher builds the poll function for one publish batch.
func statusFetcher(gw *gateway.Client, sess *model.Session, workspace string) poller.StatusFetcher {
	return func(ctx context.Context, postID string) (string, string, error) {
		res, err := gw.Call(ctx, sess, "/posts/"+url.PathEscape(postID)+"/status", gateway.Options{
			Workspace: workspace,
		})
		if err != nil {
			return "", "", err
		}
		if !res.Success {
			return "", "", errors.New(res.Error)
		}
		var st postStatus
		if err := json.Unmarshal(res.Data, &st); err != nil {
			return "", "", err
		}
		return st.Status, st.Reason, nil
	}
}

// PublishPostsHandler godoc
// @Summary      Publish scheduled posts now
// @Description  Forward the publish action to the backend, then watch the first post of the batch until it settles or the attempt budget runs out
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        data  body  dto.PublishPostsDTO  true  "Post ids and workspace"
// @Success      200  {object}  dto.PublishResponse
// @Success      202  {object}  dto.PublishResponse  "Still processing, check back"
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/posts/publish [post]
func PublishPostsHandler(gw *gateway.Client, interval time.Duration, maxAttempts int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body dto.PublishPostsDTO
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "invalid body"})
		}
		if len(body.PostIDs) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "postIds is required"})
		}

		sess := middleware.SessionFromLocals(c)
		res, err := gw.Call(c.Context(), sess, "/posts/publish", gateway.Options{
			Method:    fiber.MethodPost,
			Body:      fiber.Map{"postIds": body.PostIDs},
			Workspace: body.Workspace,
		})
		if err != nil {
			return err
		}
		if !res.Success {
			return gatewayError(c, res)
		}

		// Watch the representative post until a terminal state. This runs
		// in the request goroutine; the interval keeps the total wait
		// bounded (default 5 x 2s).
		outcome := dto.PublishResponse{Status: "processing"}
		p := poller.NewWithTiming(statusFetcher(gw, sess, body.Workspace), interval, maxAttempts)
		p.Run(c.Context(), body.PostIDs, poller.Callbacks{
			OnSuccess: func() { outcome = dto.PublishResponse{Status: "sent"} },
			OnError:   func(reason string) { outcome = dto.PublishResponse{Status: "failed", Reason: reason} },
			OnTimeout: func() { outcome = dto.PublishResponse{Status: "processing"} },
		})

		if outcome.Status == "processing" {
			// Not an error: the backend is still working on it.
			return c.Status(fiber.StatusAccepted).JSON(outcome)
		}
		return c.JSON(outcome)
	}
}

// GetPostStatusHandler godoc
// @Summary      Read one post's publish status
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        post_id  path   string  true   "Post id"
// @Param        workspace  query  string  false  "Workspace slug or UUID"
// @Success      200  {object}  object
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/posts/{post_id}/status [get]
func GetPostStatusHandler(gw *gateway.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID := c.Params("post_id")
		if postID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "missing post_id in route"})
		}

		sess := middleware.SessionFromLocals(c)
		res, err := gw.Call(c.Context(), sess, "/posts/"+url.PathEscape(postID)+"/status", gateway.Options{
			Workspace: c.Query("workspace"),
		})
		if err != nil {
			return err
		}
		if !res.Success {
			return gatewayError(c, res)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(res.Data)
	}
}

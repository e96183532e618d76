package handlers

import (
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"postpilot/dto"
	"postpilot/internal/gateway"
	"postpilot/internal/middleware"
	"postpilot/internal/store"
	"postpilot/internal/workspacectx"
	"postpilot/model"
)

// gatewayError maps a failed gateway Result onto an HTTP response:
// connectivity failures are 502, backend business errors are surfaced
// verbatim as 400.
func gatewayError(c *fiber.Ctx, res gateway.Result) error {
	status := fiber.StatusBadRequest
	if res.Error == gateway.ConnectivityError {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(dto.ErrorResponse{Message: res.Error})
}

// fetchStructure loads the caller's organization/workspace tree.
func fetchStructure(c *fiber.Ctx, gw *gateway.Client, sess *model.Session) (model.Structure, *gateway.Result, error) {
	res, err := gw.Call(c.Context(), sess, "/workspaces/structure", gateway.Options{})
	if err != nil {
		return model.Structure{}, nil, err
	}
	if !res.Success {
		return model.Structure{}, &res, nil
	}
	var structure model.Structure
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &structure); err != nil {
			structure = model.Structure{}
		}
	}
	return structure, nil, nil
}

// GetStructureHandler godoc
// @Summary      List organizations and workspaces
// @Description  Return the caller's full organization/workspace structure
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Structure
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/workspaces [get]
func GetStructureHandler(gw *gateway.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFromLocals(c)
		structure, failed, err := fetchStructure(c, gw, sess)
		if err != nil {
			return err
		}
		if failed != nil {
			return gatewayError(c, *failed)
		}
		return c.JSON(structure)
	}
}

// SelectWorkspaceHandler godoc
// @Summary      Select the active workspace
// @Description  Validate the identifier against the structure and persist it as the last-selected workspace
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        data  body  dto.SelectWorkspaceDTO  true  "Workspace slug or UUID"
// @Success      200  {object}  model.Selection
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/workspaces/select [post]
func SelectWorkspaceHandler(gw *gateway.Client, st store.SelectionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body dto.SelectWorkspaceDTO
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "invalid body"})
		}
		if body.Workspace == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "workspace is required"})
		}

		sess := middleware.SessionFromLocals(c)
		structure, failed, err := fetchStructure(c, gw, sess)
		if err != nil {
			return err
		}
		if failed != nil {
			return gatewayError(c, *failed)
		}

		ws := structure.FindByIdentifier(body.Workspace)
		if ws == nil {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Message: "workspace not found"})
		}

		saved, err := st.Save(c.Context(), model.SelectionFromWorkspace(sess.User.ID, *ws))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Message: "could not persist selection"})
		}
		return c.JSON(saved)
	}
}

// GetContextHandler godoc
// @Summary      Resolve the workspace context for a URL
// @Description  Run workspace resolution for the given path and report the outcome, including the cleaned URL when a transient parameter should be stripped
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        path  query  string  false  "URL to resolve, defaults to /"
// @Success      200  {object}  dto.ContextResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/context [get]
func GetContextHandler(gw *gateway.Client, st store.SelectionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target, err := url.Parse(c.Query("path", "/"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: "invalid path"})
		}

		sess := middleware.SessionFromLocals(c)
		structure, failed, err := fetchStructure(c, gw, sess)
		if err != nil {
			return err
		}
		if failed != nil {
			return gatewayError(c, *failed)
		}

		persisted, err := st.Get(c.Context(), sess.User.ID)
		if err != nil {
			persisted = nil
		}

		resolution := workspacectx.Resolve(workspacectx.Input{
			Path:      target.Path,
			Query:     target.Query(),
			Persisted: persisted,
			Structure: structure,
		})

		generation := int64(0)
		if persisted != nil {
			generation = persisted.Generation
		}
		if resolution.Persist && resolution.Workspace != nil {
			saved, err := st.Save(c.Context(), model.SelectionFromWorkspace(sess.User.ID, *resolution.Workspace))
			if err == nil && saved != nil {
				generation = saved.Generation
			}
		}

		out := dto.ContextResponse{
			Source:     string(resolution.Source),
			Generation: generation,
			CleanPath:  resolution.CleanPath,
			Notice:     resolution.Notice,
			Deferred:   resolution.Deferred,
		}
		if resolution.Workspace != nil {
			out.WorkspaceID = resolution.Workspace.ID.String()
			out.Slug = resolution.Workspace.Slug
			out.Name = resolution.Workspace.Name
		}
		return c.JSON(out)
	}
}

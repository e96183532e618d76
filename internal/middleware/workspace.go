package middleware

import (
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"postpilot/internal/gateway"
	"postpilot/internal/store"
	"postpilot/internal/workspacectx"
	"postpilot/model"
)

// NoticeCookie carries a resolution notice across the clean-URL redirect,
// which would otherwise drop it. It is consumed on the next render.
const NoticeCookie = "pp_notice"

// WithWorkspaceContext resolves the active workspace for workspace-scoped
// routes and applies the resolution's side-effect plan: persist promoted or
// corrected selections, redirect once to the cleaned URL, and expose the
// context through Locals.
func WithWorkspaceContext(gw *gateway.Client, st store.SelectionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFromLocals(c)
		if sess == nil {
			// Workspace pages are never anonymous.
			return gateway.ErrLoginRedirect
		}

		res, err := gw.Call(c.Context(), sess, "/workspaces/structure", gateway.Options{})
		if err != nil {
			return err
		}
		var structure model.Structure
		if res.Success && len(res.Data) > 0 {
			if err := json.Unmarshal(res.Data, &structure); err != nil {
				structure = model.Structure{}
			}
		}

		persisted, err := st.Get(c.Context(), sess.User.ID)
		if err != nil {
			// Store trouble degrades to "no prior selection".
			persisted = nil
		}

		resolution := workspacectx.Resolve(workspacectx.Input{
			Path:      c.Path(),
			Query:     queryValues(c),
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

		if resolution.CleanPath != "" {
			if resolution.Notice != "" {
				c.Cookie(&fiber.Cookie{
					Name:     NoticeCookie,
					Value:    url.QueryEscape(resolution.Notice),
					Path:     "/",
					MaxAge:   60,
					HTTPOnly: true,
					SameSite: "Lax",
				})
			}
			return c.Redirect(resolution.CleanPath, fiber.StatusFound)
		}

		notice := resolution.Notice
		if raw := c.Cookies(NoticeCookie); raw != "" {
			if notice == "" {
				if v, err := url.QueryUnescape(raw); err == nil {
					notice = v
				}
			}
			c.ClearCookie(NoticeCookie)
		}

		c.Locals(workspacectx.LocalsKey, &workspacectx.Context{
			Workspace:  resolution.Workspace,
			Source:     resolution.Source,
			Generation: generation,
			Notice:     notice,
			Deferred:   resolution.Deferred,
		})
		return c.Next()
	}
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

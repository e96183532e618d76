package workspacectx

import (
	"fmt"
	"net/url"
	"strings"

	"postpilot/model"
)

// Source says which rule produced the resolved workspace.
type Source string

const (
	SourcePath      Source = "path"
	SourceQuery     Source = "query"
	SourcePersisted Source = "persisted"
	SourceDefault   Source = "default"
	SourceNone      Source = "none"
)

// Legacy query parameters that may carry a workspace identifier.
const (
	queryParam       = "workspace"
	queryParamLegacy = "workspaceId"
)

// reservedSegments are first path segments that can never be workspace
// slugs: system routes and static assets.
var reservedSegments = map[string]bool{
	"auth":        true,
	"api":         true,
	"tools":       true,
	"onboarding":  true,
	"docs":        true,
	"static":      true,
	"assets":      true,
	"favicon.ico": true,
}

// Input is everything resolution depends on. Resolve is a pure function of
// this value; side effects are described by the Resolution, never performed.
type Input struct {
	Path      string
	Query     url.Values
	Persisted *model.Selection
	Structure model.Structure
}

// Resolution is the outcome plus the side-effect plan for the caller to
// apply: persist the selection, redirect to the cleaned URL, show a notice.
type Resolution struct {
	Workspace *model.Workspace
	Source    Source
	// Persist is set when the persisted selection must be (re)written:
	// promotion of a URL-supplied workspace, a default pick, a store/URL
	// mismatch correction, or a refresh of drifted workspace metadata.
	Persist bool
	// CleanPath, when non-empty, is the URL to redirect to with the
	// transient workspace parameters stripped.
	CleanPath string
	// Notice is a transient user-facing message (unknown identifier).
	Notice string
	// Deferred means structure data has not loaded; resolve again later.
	Deferred bool
}

// Resolve derives the active workspace with strict precedence:
// path segment > query parameter > persisted selection > first workspace.
// It never fails hard: unknown identifiers degrade to the next rule, and an
// empty structure defers resolution instead of blocking.
func Resolve(in Input) Resolution {
	if in.Structure.Empty() {
		return Resolution{Source: SourceNone, Deferred: true}
	}

	clean := cleanedPath(in.Path, in.Query)
	notice := ""

	if seg := firstSegment(in.Path); seg != "" && !reservedSegments[seg] {
		if ws := in.Structure.FindByIdentifier(seg); ws != nil {
			// Path wins. A workspace query param, if present, is stale
			// by definition and still gets stripped.
			return Resolution{
				Workspace: ws,
				Source:    SourcePath,
				Persist:   stale(in.Persisted, ws),
				CleanPath: clean,
			}
		}
		// The segment named a workspace that does not exist (or is no
		// longer accessible). Fall through, but tell the user.
		notice = fmt.Sprintf("Workspace %q was not found", seg)
	}

	if raw := queryIdentifier(in.Query); raw != "" {
		if ws := in.Structure.FindByIdentifier(raw); ws != nil {
			return Resolution{
				Workspace: ws,
				Source:    SourceQuery,
				Persist:   true,
				CleanPath: clean,
				Notice:    notice,
			}
		}
		if notice == "" {
			notice = fmt.Sprintf("Workspace %q was not found", raw)
		}
	}

	if in.Persisted != nil {
		if ws := in.Structure.FindByIdentifier(in.Persisted.WorkspaceID); ws != nil {
			return Resolution{
				Workspace: ws,
				Source:    SourcePersisted,
				Persist:   stale(in.Persisted, ws),
				CleanPath: clean,
				Notice:    notice,
			}
		}
	}

	if ws := in.Structure.First(); ws != nil {
		return Resolution{
			Workspace: ws,
			Source:    SourceDefault,
			Persist:   true,
			CleanPath: clean,
			Notice:    notice,
		}
	}

	// Organizations exist but none has a workspace yet.
	return Resolution{Source: SourceNone, CleanPath: clean, Notice: notice}
}

func queryIdentifier(q url.Values) string {
	if v := q.Get(queryParam); v != "" {
		return v
	}
	return q.Get(queryParamLegacy)
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

// stale reports whether the stored selection must be rewritten for ws:
// a different workspace, or the same workspace whose metadata (slug, name,
// role, ...) changed upstream since it was recorded.
func stale(persisted *model.Selection, ws *model.Workspace) bool {
	if persisted == nil {
		return true
	}
	return persisted.WorkspaceID != ws.ID.String() ||
		persisted.Slug != ws.Slug ||
		persisted.Name != ws.Name ||
		persisted.Role != ws.Role ||
		persisted.Timezone != ws.Timezone ||
		persisted.OrganizationID != ws.OrganizationID.String()
}

// cleanedPath rebuilds the URL without the workspace query parameters.
// Returns "" when there is nothing to strip, which makes repeated
// resolution idempotent.
func cleanedPath(path string, query url.Values) string {
	if query.Get(queryParam) == "" && query.Get(queryParamLegacy) == "" {
		return ""
	}
	rest := url.Values{}
	for k, vs := range query {
		if k == queryParam || k == queryParamLegacy {
			continue
		}
		rest[k] = vs
	}
	if enc := rest.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

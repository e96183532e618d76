package model

import (
	"github.com/google/uuid"
)

// Workspace roles. The backend enforces them; this layer only carries them.
const (
	WorkspaceRoleAdmin  = "admin"
	WorkspaceRoleEditor = "editor"
	WorkspaceRoleViewer = "viewer"
)

// Workspace is a tenant-scoped publishing unit inside an organization.
// The backend accepts either the UUID or the slug as its identifier.
type Workspace struct {
	ID             uuid.UUID `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	Timezone       string    `json:"timezone"`
	Role           string    `json:"role"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// Identifier returns the canonical identifier to send to the backend:
// the slug when one exists, the UUID otherwise.
func (w Workspace) Identifier() string {
	if w.Slug != "" {
		return w.Slug
	}
	return w.ID.String()
}

package model

import (
	"github.com/google/uuid"
)

// Organization roles.
const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// Organization is the billing/ownership boundary. It owns zero or more
// workspaces.
type Organization struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Role       string      `json:"role"`
	Plan       string      `json:"plan"`
	Workspaces []Workspace `json:"workspaces"`
}

// Structure is the full organization/workspace tree for the current user,
// as reported by the backend.
type Structure struct {
	Organizations []Organization `json:"organizations"`
}

// Empty reports whether the structure has loaded no organizations at all.
// Resolution is deferred, not failed, while this is true.
func (s Structure) Empty() bool {
	return len(s.Organizations) == 0
}

// FindByIdentifier looks a workspace up by slug first, then by UUID.
// Returns nil when nothing matches.
func (s Structure) FindByIdentifier(idOrSlug string) *Workspace {
	if idOrSlug == "" {
		return nil
	}
	for i := range s.Organizations {
		for j := range s.Organizations[i].Workspaces {
			if s.Organizations[i].Workspaces[j].Slug == idOrSlug {
				return &s.Organizations[i].Workspaces[j]
			}
		}
	}
	id, err := uuid.Parse(idOrSlug)
	if err != nil {
		return nil
	}
	for i := range s.Organizations {
		for j := range s.Organizations[i].Workspaces {
			if s.Organizations[i].Workspaces[j].ID == id {
				return &s.Organizations[i].Workspaces[j]
			}
		}
	}
	return nil
}

// First returns the first workspace of the first organization that has one,
// or nil when no organization has any workspace yet.
func (s Structure) First() *Workspace {
	for i := range s.Organizations {
		if len(s.Organizations[i].Workspaces) > 0 {
			return &s.Organizations[i].Workspaces[0]
		}
	}
	return nil
}

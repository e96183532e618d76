package model

import "time"

// Selection is the persisted last-selected workspace for a user. It survives
// across sessions; the full structure does not. IDs are stored as strings so
// the record round-trips through BSON without a custom codec.
type Selection struct {
	UserID         string    `bson:"user_id"         json:"userId"`
	WorkspaceID    string    `bson:"workspace_id"    json:"workspaceId"`
	Slug           string    `bson:"slug"            json:"slug"`
	Name           string    `bson:"name"            json:"name"`
	OrganizationID string    `bson:"organization_id" json:"organizationId"`
	Role           string    `bson:"role"            json:"role"`
	Timezone       string    `bson:"timezone"        json:"timezone"`
	Generation     int64     `bson:"generation"      json:"generation"`
	UpdatedAt      time.Time `bson:"updated_at"      json:"updatedAt"`
}

// SelectionFromWorkspace builds the record to persist for a user picking ws.
func SelectionFromWorkspace(userID string, ws Workspace) Selection {
	return Selection{
		UserID:         userID,
		WorkspaceID:    ws.ID.String(),
		Slug:           ws.Slug,
		Name:           ws.Name,
		OrganizationID: ws.OrganizationID.String(),
		Role:           ws.Role,
		Timezone:       ws.Timezone,
	}
}

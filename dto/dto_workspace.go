package dto

// ===== Request =====
type SelectWorkspaceDTO struct {
	// Workspace is a slug or a UUID; the structure lookup accepts either.
	Workspace string `json:"workspace" validate:"required" example:"acme-corp"`
}

// ===== Responses =====

// ContextResponse describes the workspace context resolved for a URL.
type ContextResponse struct {
	WorkspaceID string `json:"workspaceId,omitempty" example:"3f1a0c9e-7f2d-4a71-9f67-0a6b5cf6f8a1"`
	Slug        string `json:"slug,omitempty"        example:"acme-corp"`
	Name        string `json:"name,omitempty"        example:"Acme Corp"`
	Source      string `json:"source"                example:"path"`
	Generation  int64  `json:"generation"            example:"7"`
	CleanPath   string `json:"cleanPath,omitempty"   example:"/acme-corp/calendar"`
	Notice      string `json:"notice,omitempty"`
	Deferred    bool   `json:"deferred,omitempty"`
}

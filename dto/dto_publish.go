package dto

// ===== Request =====
type PublishPostsDTO struct {
	PostIDs []string `json:"postIds" validate:"required"`
	// Workspace scopes the publish; slug or UUID.
	Workspace string `json:"workspace" example:"acme-corp"`
}

// ===== Responses =====

// PublishResponse reports the terminal (or still-processing) outcome of a
// publish action. Status is one of: sent, failed, processing.
type PublishResponse struct {
	Status string `json:"status" example:"sent"`
	Reason string `json:"reason,omitempty" example:"Twitter token expired"`
}

package dto

// ===== Error Response =====
type ErrorResponse struct {
	Message string `json:"message" example:"workspace not found"`
}

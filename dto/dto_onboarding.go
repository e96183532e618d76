package dto

type NextStepResponse struct {
	Next   string `json:"next" example:"/onboarding/workspace"`
	Notice string `json:"notice,omitempty"`
}

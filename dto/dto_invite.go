package dto

type InviteAcceptResponse struct {
	Accepted bool   `json:"accepted"`
	Toast    string `json:"toast,omitempty" example:"Invite accepted"`
}

package model

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is what the session provider hands out for a browser cookie.
// This layer only reads sessions, it never issues or refreshes them.
type Session struct {
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session's token expiry (when known) has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

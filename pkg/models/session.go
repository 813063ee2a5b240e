package models

import "time"

// Session associates an issued token with a Metabase session.
// The token itself is the map key in the session store and is not stored here.
type Session struct {
	Username          string    `json:"username"`
	MetabaseSessionID string    `json:"-"` // bearer-equivalent credential, never serialized
	UserID            int       `json:"user_id"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// User holds identity information returned by Metabase's current-user lookup.
type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

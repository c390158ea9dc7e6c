package models

import "time"

// Session is a cached platform bearer credential.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Usable reports whether the session may still be presented at now.
func (s Session) Usable(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}

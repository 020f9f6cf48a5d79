package models

import "time"

// Session is the server-side record behind a login cookie.
type Session struct {
	ID          string    `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// User returns the identity carried by the session.
func (s Session) User() UserInfo {
	return UserInfo{Username: s.Username, DisplayName: s.DisplayName}
}

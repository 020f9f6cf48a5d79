package models

import "time"

// User is a staff account stored in the users table. Accounts are seeded from
// configuration at start-up and never edited at runtime.
type User struct {
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Info returns the public identity of the user.
func (u User) Info() UserInfo {
	return UserInfo{Username: u.Username, DisplayName: u.DisplayName}
}

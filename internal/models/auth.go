package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult is returned by a successful login; Token goes into the cookie.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserInfo
}

// LoginStatus answers check-login.
type LoginStatus struct {
	LoggedIn bool      `json:"loggedIn"`
	User     *UserInfo `json:"user,omitempty"`
}

// SessionClaims is the signed cookie payload. The session id is looked up on
// every request; the signature only guards against forged ids.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

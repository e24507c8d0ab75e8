// Package auth issues and verifies admin sessions and gates every
// protected route by capability.
//
// A session is an opaque random token handed to the browser in the
// admin_session cookie. The server stores only its SHA-256 hash, so a
// leaked database dump cannot be replayed as cookies.
package auth

import "time"

// CookieName is the session cookie read on every admin request.
const CookieName = "admin_session"

// Session is the server-side record of an issued token.
type Session struct {
	ID           string    `db:"id"`
	TokenHash    string    `db:"token_hash"`
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	Remember     bool      `db:"remember"`
	IssuedAt     time.Time `db:"issued_at"`
	ExpiresAt    time.Time `db:"expires_at"`
	LastActivity time.Time `db:"last_activity"`
	IP           string    `db:"ip"`
	UserAgent    string    `db:"user_agent"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginAttempt is one row of the login audit trail.
type LoginAttempt struct {
	Email   string
	IP      string
	Success bool
}

// LoginInput is the body of POST /api/auth/login. IP and UserAgent are filled in by
// the handler, never by the client. Email is not format-checked: a
// malformed address is just another wrong credential.
type LoginInput struct {
	Email     string `json:"email" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,max=256"`
	Remember  bool   `json:"remember"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

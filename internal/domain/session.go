package domain

import "time"

// SessionState is the authentication state of a visitor.
type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
)

// Session binds a visitor to an authenticated user and the bearer token the
// remote API issued for them.
type Session struct {
	ID        string
	UserID    int
	Username  string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

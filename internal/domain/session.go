package domain

import "time"

// SessionAuth is the authenticated session's credential set. Values are
// immutable: a token refresh produces a new SessionAuth rather than
// mutating the one threaded through the request.
type SessionAuth struct {
	IDToken       string
	RefreshToken  string
	TokenIssuedAt time.Time
}

// NewSessionAuth creates a SessionAuth issued at the given time.
func NewSessionAuth(idToken, refreshToken string, issuedAt time.Time) SessionAuth {
	return SessionAuth{
		IDToken:       idToken,
		RefreshToken:  refreshToken,
		TokenIssuedAt: issuedAt,
	}
}

// IsZero reports whether no session is present.
func (s SessionAuth) IsZero() bool {
	return s.IDToken == "" && s.RefreshToken == ""
}

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/auth"
	"github.com/casefold-ai/lexgate/internal/domain"
)

const SessionKey contextKey = "session_auth"

// overridable in tests
var timeNow = time.Now

// SessionCodec reads and writes the signed session cookie.
type SessionCodec interface {
	FromRequest(r *http.Request) (domain.SessionAuth, error)
	SetCookie(w http.ResponseWriter, session domain.SessionAuth) error
	ClearCookie(w http.ResponseWriter)
}

// TokenRefresher exchanges a refresh token for a fresh session.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.SessionAuth, error)
}

// SessionAuth gates a route group on an authenticated session. The
// bearer token is lazily refreshed when it nears expiry, rewriting the
// cookie; a failed refresh clears the session and forces
// re-authentication. Browser navigations are redirected to the login
// page, API calls get a 401.
func SessionAuth(codec SessionCodec, refresher TokenRefresher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := codec.FromRequest(r)
			if err != nil {
				codec.ClearCookie(w)
				unauthenticated(w, r)
				return
			}

			if auth.ShouldRefresh(timeNow(), session) {
				refreshed, err := refresher.Refresh(r.Context(), session.RefreshToken)
				if err != nil {
					codec.ClearCookie(w)
					unauthenticated(w, r)
					return
				}
				if err := codec.SetCookie(w, refreshed); err != nil {
					codec.ClearCookie(w)
					unauthenticated(w, r)
					return
				}
				session = refreshed
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the authenticated session from context; zero when
// the request did not pass the session gate.
func GetSession(ctx context.Context) domain.SessionAuth {
	session, _ := ctx.Value(SessionKey).(domain.SessionAuth)
	return session
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	api.Error(w, http.StatusUnauthorized, "authentication required")
}

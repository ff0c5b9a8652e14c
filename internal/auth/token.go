// Package auth manages the browser session credential: a bearer token
// for the backend API that is lazily refreshed before it expires, and
// the signed cookie it travels in.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/casefold-ai/lexgate/internal/domain"
)

const (
	// Tokens are issued for 60 minutes; refresh 5 minutes early.
	refreshThreshold = 55 * time.Minute

	refreshTimeout = 10 * time.Second

	defaultTokenEndpoint = "https://securetoken.googleapis.com/v1/token"
)

// ShouldRefresh reports whether the session's bearer token needs a
// refresh: true when no issuance timestamp is recorded or the token is
// older than the refresh threshold.
func ShouldRefresh(now time.Time, auth domain.SessionAuth) bool {
	if auth.TokenIssuedAt.IsZero() {
		return true
	}
	return now.Sub(auth.TokenIssuedAt) > refreshThreshold
}

// Refresher exchanges a refresh token for a new bearer token at the
// identity provider.
type Refresher struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewRefresher creates a Refresher for the given identity-provider API
// key. An empty endpoint uses the provider's default.
func NewRefresher(apiKey, endpoint string) *Refresher {
	if endpoint == "" {
		endpoint = defaultTokenEndpoint
	}
	return &Refresher{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: refreshTimeout,
		},
		now: time.Now,
	}
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh calls the identity provider's token-refresh endpoint. On
// success it returns a new SessionAuth issued now. Any failure (4xx,
// timeout, network error) is terminal for the request: no retry is
// performed and the caller must clear the session and force
// re-authentication.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (domain.SessionAuth, error) {
	if refreshToken == "" {
		return domain.SessionAuth{}, domain.ErrNoSession
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := r.endpoint + "?key=" + url.QueryEscape(r.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.SessionAuth{}, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.SessionAuth{}, domain.NewDomainErrorWithCause(domain.ErrCodeUnauthorized, "token refresh failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SessionAuth{}, domain.NewDomainError(domain.ErrCodeUnauthorized,
			fmt.Sprintf("token refresh rejected with status %d", resp.StatusCode))
	}

	var payload refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.SessionAuth{}, domain.NewDomainErrorWithCause(domain.ErrCodeUnauthorized, "token refresh returned malformed payload", err)
	}
	if payload.IDToken == "" {
		return domain.SessionAuth{}, domain.NewDomainError(domain.ErrCodeUnauthorized, "token refresh returned no id token")
	}

	return domain.NewSessionAuth(payload.IDToken, payload.RefreshToken, r.now()), nil
}

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
	signInTimeout = 10 * time.Second

	defaultIdentityEndpoint = "https://identitytoolkit.googleapis.com/v1"
)

// IdentityClient signs users in and up at the identity provider. The
// resulting credentials become the browser session.
type IdentityClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewIdentityClient creates an IdentityClient for the given provider API
// key. An empty endpoint uses the provider's default.
func NewIdentityClient(apiKey, endpoint string) *IdentityClient {
	if endpoint == "" {
		endpoint = defaultIdentityEndpoint
	}
	return &IdentityClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: signInTimeout,
		},
		now: time.Now,
	}
}

type identityResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignIn exchanges email/password credentials for a session.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (domain.SessionAuth, error) {
	return c.call(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates an account and returns its first session.
func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (domain.SessionAuth, error) {
	return c.call(ctx, "accounts:signUp", email, password)
}

func (c *IdentityClient) call(ctx context.Context, action, email, password string) (domain.SessionAuth, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return domain.SessionAuth{}, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.endpoint, action, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return domain.SessionAuth{}, fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SessionAuth{}, domain.NewDomainErrorWithCause(domain.ErrCodeUnauthorized, "sign-in failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SessionAuth{}, domain.NewDomainError(domain.ErrCodeUnauthorized,
			fmt.Sprintf("sign-in rejected with status %d", resp.StatusCode))
	}

	var parsed identityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.SessionAuth{}, domain.NewDomainErrorWithCause(domain.ErrCodeUnauthorized, "sign-in returned malformed payload", err)
	}
	if parsed.IDToken == "" {
		return domain.SessionAuth{}, domain.NewDomainError(domain.ErrCodeUnauthorized, "sign-in returned no id token")
	}

	return domain.NewSessionAuth(parsed.IDToken, parsed.RefreshToken, c.now()), nil
}

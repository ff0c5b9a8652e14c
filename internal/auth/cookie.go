package auth

import (
	"net/http"
	"time"

	"github.com/casefold-ai/lexgate/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookieName is the cookie carrying the signed session.
	SessionCookieName = "lexgate_session"

	cookieLifetime = 14 * 24 * time.Hour
)

type sessionClaims struct {
	IDToken       string `json:"idt"`
	RefreshToken  string `json:"rft"`
	TokenIssuedAt int64  `json:"tia"`
	jwt.RegisteredClaims
}

// CookieCodec signs SessionAuth values into browser cookies and reads
// them back. Sessions are stateless: the gateway keeps no server-side
// session store.
type CookieCodec struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewCookieCodec creates a codec signing with the given secret. Secure
// marks cookies HTTPS-only.
func NewCookieCodec(secret []byte, secure bool) *CookieCodec {
	return &CookieCodec{secret: secret, secure: secure, now: time.Now}
}

// Encode signs the session into a cookie value.
func (c *CookieCodec) Encode(session domain.SessionAuth) (string, error) {
	now := c.now()
	claims := sessionClaims{
		IDToken:       session.IDToken,
		RefreshToken:  session.RefreshToken,
		TokenIssuedAt: session.TokenIssuedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cookieLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies a cookie value and returns the session it carries.
func (c *CookieCodec) Decode(value string) (domain.SessionAuth, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrSessionExpired
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.SessionAuth{}, domain.ErrSessionExpired
	}

	issuedAt := time.Time{}
	if claims.TokenIssuedAt > 0 {
		issuedAt = time.Unix(claims.TokenIssuedAt, 0)
	}
	return domain.NewSessionAuth(claims.IDToken, claims.RefreshToken, issuedAt), nil
}

// SetCookie writes the signed session cookie on the response.
func (c *CookieCodec) SetCookie(w http.ResponseWriter, session domain.SessionAuth) error {
	value, err := c.Encode(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})
	return nil
}

// ClearCookie removes the session cookie.
func (c *CookieCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})
}

// FromRequest reads and verifies the session cookie on a request.
// Returns ErrNoSession when the cookie is absent.
func (c *CookieCodec) FromRequest(r *http.Request) (domain.SessionAuth, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return domain.SessionAuth{}, domain.ErrNoSession
	}
	return c.Decode(cookie.Value)
}

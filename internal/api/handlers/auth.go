package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
	"github.com/casefold-ai/lexgate/internal/domain"
)

// IdentityProvider authenticates credentials against the identity
// service and returns a fresh token pair.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (domain.SessionAuth, error)
	SignUp(ctx context.Context, email, password string) (domain.SessionAuth, error)
}

// SessionWriter issues and revokes the signed session cookie.
type SessionWriter interface {
	SetCookie(w http.ResponseWriter, session domain.SessionAuth) error
	ClearCookie(w http.ResponseWriter)
}

type AuthHandler struct {
	identity IdentityProvider
	cookies  SessionWriter
}

func NewAuthHandler(identity IdentityProvider, cookies SessionWriter) *AuthHandler {
	return &AuthHandler{identity: identity, cookies: cookies}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.identity.SignIn)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.identity.SignUp)
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (domain.SessionAuth, error)) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid email address")
		return
	}

	session, err := fn(r.Context(), req.Email, req.Password)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeUnauthorized {
			api.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("identity request failed (request_id=%s): %v", middleware.GetRequestID(r.Context()), err)
		api.Error(w, http.StatusBadGateway, "authentication service unavailable")
		return
	}

	if err := h.cookies.SetCookie(w, session); err != nil {
		log.Printf("failed to issue session cookie (request_id=%s): %v", middleware.GetRequestID(r.Context()), err)
		api.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "authenticated"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearCookie(w)
	api.Success(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/security/auth"
	"github.com/aryan0dhankhar/connectcoach/internal/security/middleware"
	"github.com/aryan0dhankhar/connectcoach/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService   *service.AuthService
	tokens        *auth.TokenManager
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates a new auth handler. secureCookies marks the session
// cookie Secure and should be set in production.
func NewAuthHandler(authService *service.AuthService, tokens *auth.TokenManager, secureCookies bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService:   authService,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserEnvelope wraps a user in the auth responses
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("failed to decode signup request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.InviteCode)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, domain.ErrInviteInvalid):
			writeError(w, http.StatusBadRequest, "Invalid or already used invite code")
		case errors.Is(err, domain.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already registered")
		default:
			h.logger.Error("signup failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Failed to create account")
		}
		return
	}

	auth.SetSessionCookie(w, result.Token, h.secureCookies)
	writeJSON(w, http.StatusOK, UserEnvelope{User: toUserResponse(result.User)})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, domain.ErrAccountDeactivated):
			writeError(w, http.StatusForbidden, "Account deactivated")
		default:
			h.logger.Error("login failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	auth.SetSessionCookie(w, result.Token, h.secureCookies)
	writeJSON(w, http.StatusOK, UserEnvelope{User: toUserResponse(result.User)})
}

// Logout handles POST /api/auth/logout. It needs no session; the cookie is
// cleared either way and a valid token only adds the audit record.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" && h.tokens != nil {
		if id, err := h.tokens.Verify(token); err == nil {
			h.authService.Logout(r.Context(), id.UserID)
		}
	}

	auth.ClearSessionCookie(w, h.secureCookies)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.Me(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to load current user",
			slog.Int64("user_id", id.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, UserEnvelope{User: toUserResponse(user)})
}

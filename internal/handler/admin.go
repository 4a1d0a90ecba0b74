package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/security/middleware"
	"github.com/aryan0dhankhar/connectcoach/internal/service"
)

// AdminHandler handles the admin-only account endpoints
type AdminHandler struct {
	authService   *service.AuthService
	publicBaseURL string
	logger        *slog.Logger
}

// NewAdminHandler creates a new admin handler. Invite URLs are built on
// publicBaseURL, or on the request's own scheme and host when it is empty.
func NewAdminHandler(authService *service.AuthService, publicBaseURL string, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AdminHandler{
		authService:   authService,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// InviteResponse carries a freshly generated invite
type InviteResponse struct {
	InviteCode string `json:"inviteCode"`
	InviteURL  string `json:"inviteUrl"`
}

// UsersResponse lists every account
type UsersResponse struct {
	Users []AdminUserResponse `json:"users"`
}

// CreateInvite handles POST /api/auth/admin/invite
func (h *AdminHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	invite, err := h.authService.GenerateInvite(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to generate invite", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to generate invite code")
		return
	}

	writeJSON(w, http.StatusOK, InviteResponse{
		InviteCode: invite.Code,
		InviteURL:  h.baseURL(r) + "/signup?invite=" + url.QueryEscape(invite.Code),
	})
}

func (h *AdminHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// ListUsers handles GET /api/auth/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	resp := UsersResponse{Users: make([]AdminUserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, AdminUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			IsActive:  u.IsActive,
			IsAdmin:   u.IsAdmin,
			CreatedAt: u.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Activate handles POST /api/auth/admin/users/{id}/activate
func (h *AdminHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST /api/auth/admin/users/{id}/deactivate
func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	admin, _ := middleware.IdentityFromContext(r.Context())
	if err := h.authService.SetActive(r.Context(), admin.UserID, userID, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to update user",
			slog.Int64("user_id", userID),
			slog.Bool("active", active),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	msg := "User deactivated"
	if active {
		msg = "User activated"
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/security/audit"
	"github.com/aryan0dhankhar/connectcoach/internal/security/auth"
)

type identityKey struct{}

// WithIdentity attaches the authenticated identity to ctx
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by Authenticate
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// Authenticate reads the session cookie, verifies it and attaches the
// identity to the request context.
func Authenticate(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			id, err := tm.Verify(token)
			if err != nil {
				log.Debug("rejected session",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin must run after Authenticate. A missing identity is treated the
// same as a non-admin one.
func RequireAdmin(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !id.IsAdmin {
				auditLog.LogDenied(r.Context(), id.UserID, "admin required: "+r.Method+" "+r.URL.Path)
				writeError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserLookup is the slice of the user repository RequireActive needs
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// RequireActive re-reads the account behind the session and rejects users
// who were deactivated after their token was issued. When enabled is false
// it passes every request through, and tokens stay valid until expiry.
func RequireActive(users UserLookup, enabled bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			user, err := users.GetByID(r.Context(), id.UserID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			case err != nil:
				log.Error("failed to load session user",
					slog.Int64("user_id", id.UserID),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			case !user.IsActive:
				writeError(w, http.StatusForbidden, "Account deactivated")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one listed runs first
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

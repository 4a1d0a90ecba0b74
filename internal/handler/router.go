package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/connectcoach/internal/security/audit"
	"github.com/aryan0dhankhar/connectcoach/internal/security/auth"
	"github.com/aryan0dhankhar/connectcoach/internal/security/middleware"
	"github.com/aryan0dhankhar/connectcoach/internal/security/ratelimit"
)

// Routes collects the handlers and guards that make up the API
type Routes struct {
	Auth       *AuthHandler
	Admin      *AdminHandler
	Feedback   *FeedbackHandler
	Foundation *FoundationHandler
	Tools      *ToolsHandler
	Health     *HealthHandler

	Tokens        *auth.TokenManager
	Users         middleware.UserLookup
	EnforceActive bool
	Audit         *audit.Logger

	// Optional; nil disables the limit
	AuthLimiter     *ratelimit.Limiter
	FeedbackLimiter *ratelimit.Limiter

	Logger *slog.Logger
}

// NewRouter registers every API route on a new mux. Authenticated routes
// run Authenticate, then RequireActive, then any admin or rate limit guard.
func NewRouter(rt Routes) *http.ServeMux {
	log := rt.Logger
	if log == nil {
		log = slog.Default()
	}
	if rt.Audit == nil {
		rt.Audit = audit.NewLogger(log)
	}

	authenticated := []func(http.Handler) http.Handler{
		middleware.Authenticate(rt.Tokens, log),
		middleware.RequireActive(rt.Users, rt.EnforceActive, log),
	}
	session := func(h http.Handler, extra ...func(http.Handler) http.Handler) http.Handler {
		mws := append(append([]func(http.Handler) http.Handler{}, authenticated...), extra...)
		return middleware.Chain(h, mws...)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return session(h, middleware.RequireAdmin(rt.Audit))
	}
	byIP := func(h http.HandlerFunc, scope string) http.Handler {
		if rt.AuthLimiter == nil {
			return h
		}
		return middleware.RateLimitByIP(rt.AuthLimiter, scope, log)(h)
	}

	var feedback http.Handler = rt.Feedback
	if rt.FeedbackLimiter != nil {
		feedback = session(feedback, middleware.RateLimitByUser(rt.FeedbackLimiter, "feedback", log))
	} else {
		feedback = session(feedback)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/signup", byIP(rt.Auth.Signup, "signup"))
	mux.Handle("POST /api/auth/login", byIP(rt.Auth.Login, "login"))
	mux.HandleFunc("POST /api/auth/logout", rt.Auth.Logout)
	mux.Handle("GET /api/auth/me", session(http.HandlerFunc(rt.Auth.Me)))

	mux.Handle("POST /api/auth/admin/invite", admin(rt.Admin.CreateInvite))
	mux.Handle("GET /api/auth/admin/users", admin(rt.Admin.ListUsers))
	mux.Handle("POST /api/auth/admin/users/{id}/activate", admin(rt.Admin.Activate))
	mux.Handle("POST /api/auth/admin/users/{id}/deactivate", admin(rt.Admin.Deactivate))

	mux.Handle("POST /api/feedback", feedback)
	mux.Handle("GET /api/foundation", session(http.HandlerFunc(rt.Foundation.Get)))
	mux.Handle("POST /api/foundation", session(http.HandlerFunc(rt.Foundation.Save)))
	mux.Handle("GET /api/tools", rt.Tools)

	mux.HandleFunc("GET /healthz", rt.Health.Health)
	mux.HandleFunc("GET /readyz", rt.Health.Ready)

	return mux
}

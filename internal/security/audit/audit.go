package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/infrastructure/logger"
)

// Action names recorded in the audit trail
const (
	ActionSignup         = "signup"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionInviteCreate   = "invite_create"
	ActionUserActivate   = "user_activate"
	ActionUserDeactivate = "user_deactivate"
	ActionFoundationSave = "foundation_save"
	ActionFeedback       = "feedback_submit"
	ActionAccessDenied   = "access_denied"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit"))}
}

// LogAction writes one audit record. actorID is 0 when the caller is not
// authenticated yet.
func (al *Logger) LogAction(ctx context.Context, actorID int64, action, resource, resourceID, status, details string) {
	actor := ""
	if actorID > 0 {
		actor = strconv.FormatInt(actorID, 10)
	}

	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor_id", actor),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", logger.RequestID(ctx)),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// LogAuth records a signup, login or logout outcome. Passwords never reach here.
func (al *Logger) LogAuth(ctx context.Context, action string, userID int64, email, status string) {
	al.LogAction(ctx, userID, action, "user", idString(userID), status, email)
}

// LogAdmin records an administrative mutation performed by adminID
func (al *Logger) LogAdmin(ctx context.Context, adminID int64, action, resource, resourceID string) {
	al.LogAction(ctx, adminID, action, resource, resourceID, "success", "")
}

func (al *Logger) LogDenied(ctx context.Context, actorID int64, reason string) {
	al.LogAction(ctx, actorID, ActionAccessDenied, "api", "", "denied", reason)
}

func idString(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

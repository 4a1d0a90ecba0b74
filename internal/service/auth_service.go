package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/internal/observability/metrics"
	"github.com/aryan0dhankhar/connectcoach/internal/security/audit"
	"github.com/aryan0dhankhar/connectcoach/internal/security/auth"
)

// inviteCodeBytes of randomness give a 32 character hex code
const inviteCodeBytes = 16

// AuthService handles signup, login, invites and account administration
type AuthService struct {
	store  domain.Store
	tokens *auth.TokenManager
	audit  *audit.Logger
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store domain.Store,
	tokens *auth.TokenManager,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &AuthService{
		store:  store,
		tokens: tokens,
		audit:  auditLog,
		logger: logger,
		now:    time.Now,
	}
}

// AuthResult is a user together with a freshly issued session token
type AuthResult struct {
	User  *domain.User
	Token string
}

// Signup redeems inviteCode and creates an active, non-admin account. The
// invite lookup, user insert and invite consumption run in one transaction,
// so a code is never marked used without its user and only one of several
// concurrent redeemers can win.
func (s *AuthService) Signup(ctx context.Context, email, password, inviteCode string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	inviteCode = strings.TrimSpace(inviteCode)
	if email == "" || password == "" || inviteCode == "" {
		return nil, domain.Invalid("Email, password, and invite code required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, domain.Invalid(fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		InviteCode:   inviteCode,
		IsActive:     true,
		IsAdmin:      false,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.Invites().GetUnusedForUpdate(ctx, inviteCode); err != nil {
			return err
		}

		existing, err := tx.Users().GetByEmail(ctx, email)
		if err == nil && existing != nil {
			return domain.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Invites().MarkUsed(ctx, inviteCode, user.ID, s.now().UTC())
	})
	if err != nil {
		metrics.ObserveAuth("signup", outcome(err))
		if errors.Is(err, domain.ErrInviteInvalid) || errors.Is(err, domain.ErrEmailTaken) {
			s.audit.LogAuth(ctx, audit.ActionSignup, 0, email, outcome(err))
			return nil, err
		}
		s.logger.Error("signup failed", slog.String("email", email), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		s.logger.Error("failed to issue token", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		return nil, err
	}

	metrics.ObserveAuth("signup", "success")
	s.audit.LogAuth(ctx, audit.ActionSignup, user.ID, email, "success")
	s.logger.Info("user signed up", slog.Int64("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords both return ErrInvalidCredentials; deactivation is only
// reported once the password has been proven.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("Email and password required")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to load user for login", slog.String("error", err.Error()))
			return nil, err
		}
		auth.BurnPasswordCheck(password)
		s.rejectLogin(ctx, 0, email, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		s.rejectLogin(ctx, user.ID, email, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.rejectLogin(ctx, user.ID, email, domain.ErrAccountDeactivated)
		return nil, domain.ErrAccountDeactivated
	}

	token, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		s.logger.Error("failed to issue token", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		return nil, err
	}

	metrics.ObserveAuth("login", "success")
	s.audit.LogAuth(ctx, audit.ActionLogin, user.ID, email, "success")
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, userID int64, email string, reason error) {
	metrics.ObserveAuth("login", outcome(reason))
	s.audit.LogAuth(ctx, audit.ActionLogin, userID, email, outcome(reason))
}

// Logout only records the event; the token itself stays valid until expiry
func (s *AuthService) Logout(ctx context.Context, userID int64) {
	s.audit.LogAuth(ctx, audit.ActionLogout, userID, "", "success")
}

// Me returns the stored account for the session's user
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// GenerateInvite mints and stores a new unused invite code
func (s *AuthService) GenerateInvite(ctx context.Context, adminID int64) (*domain.InviteCode, error) {
	code, err := randomCode()
	if err != nil {
		s.logger.Error("failed to generate invite code", slog.String("error", err.Error()))
		return nil, err
	}

	invite := &domain.InviteCode{Code: code}
	if adminID > 0 {
		invite.CreatedBy = &adminID
	}
	if err := s.store.Invites().Create(ctx, invite); err != nil {
		return nil, err
	}

	metrics.IncrementInvites()
	s.audit.LogAdmin(ctx, adminID, audit.ActionInviteCreate, "invite_code", strconv.FormatInt(invite.ID, 10))
	return invite, nil
}

// ListUsers returns every account, newest last
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.Users().List(ctx)
}

// SetActive activates or deactivates userID. Tokens already issued to the
// user keep working unless active sessions are enforced.
func (s *AuthService) SetActive(ctx context.Context, adminID, userID int64, active bool) error {
	if err := s.store.Users().SetActive(ctx, userID, active); err != nil {
		return err
	}

	action := audit.ActionUserDeactivate
	if active {
		action = audit.ActionUserActivate
	}
	s.audit.LogAdmin(ctx, adminID, action, "user", strconv.FormatInt(userID, 10))
	return nil
}

// EnsureAdmin creates an active admin account for email when none exists.
// An existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Invalid("admin email and password required")
	}

	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin account", slog.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &domain.User{Email: email, PasswordHash: hash, IsActive: true, IsAdmin: true}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil
		}
		return err
	}

	s.logger.Info("bootstrap admin created", slog.Int64("user_id", admin.ID), slog.String("email", email))
	return nil
}

func identityOf(u *domain.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}

func randomCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// outcome is the metrics and audit label for an auth error
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInviteInvalid):
		return "invalid_invite"
	case errors.Is(err, domain.ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountDeactivated):
		return "deactivated"
	default:
		return "error"
	}
}

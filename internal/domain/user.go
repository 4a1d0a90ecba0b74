package domain

import (
	"context"
	"time"
)

// User represents a registered member
type User struct {
	ID           int64
	Email        string
	PasswordHash string // bcrypt, never returned in API responses
	InviteCode   string // code consumed at signup; empty for bootstrap admins
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// InviteCode is a single-use capability that gates signup
type InviteCode struct {
	ID        int64
	Code      string
	IsUsed    bool
	UsedBy    *int64
	UsedAt    *time.Time
	CreatedBy *int64
	CreatedAt time.Time
}

// InviteRepository defines data access for invite codes
type InviteRepository interface {
	Create(ctx context.Context, invite *InviteCode) error
	// GetUnusedForUpdate returns the code only while it is unused, locking the row
	// for the rest of the surrounding transaction.
	GetUnusedForUpdate(ctx context.Context, code string) (*InviteCode, error)
	// MarkUsed flips an unused code to used. It returns ErrInviteInvalid when the
	// code is unknown or was consumed concurrently.
	MarkUsed(ctx context.Context, code string, userID int64, at time.Time) error
}

// Store groups the repositories and runs work in a transaction
type Store interface {
	Users() UserRepository
	Invites() InviteRepository
	Foundations() FoundationRepository
	Feedback() FeedbackRepository
	// WithTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

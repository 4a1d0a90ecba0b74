package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/pkg/database"
)

// PostgresInviteRepository implements domain.InviteRepository using PostgreSQL
type PostgresInviteRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

// NewPostgresInviteRepository creates a new invite code repository
func NewPostgresInviteRepository(db database.DBTX, logger *slog.Logger) *PostgresInviteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresInviteRepository{db: db, logger: logger}
}

// Create stores a new unused invite code
func (r *PostgresInviteRepository) Create(ctx context.Context, invite *domain.InviteCode) error {
	query := `
		INSERT INTO invite_codes (code, is_used, created_by)
		VALUES ($1, false, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, invite.Code, nullInt64(invite.CreatedBy)).Scan(
		&invite.ID,
		&invite.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create invite code", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create invite code: %w", err)
	}
	invite.IsUsed = false
	return nil
}

// GetUnusedForUpdate loads an unused code and holds a row lock on it until the
// surrounding transaction ends. A concurrent redeemer blocks on the lock and,
// once the first commits, re-evaluates is_used and finds no row.
func (r *PostgresInviteRepository) GetUnusedForUpdate(ctx context.Context, code string) (*domain.InviteCode, error) {
	query := `
		SELECT id, code, is_used, used_by, used_at, created_by, created_at
		FROM invite_codes
		WHERE code = $1 AND is_used = false
		FOR UPDATE
	`

	invite := &domain.InviteCode{}
	var usedBy, createdBy sql.NullInt64
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&invite.ID,
		&invite.Code,
		&invite.IsUsed,
		&usedBy,
		&usedAt,
		&createdBy,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInviteInvalid
		}
		return nil, fmt.Errorf("failed to get invite code: %w", err)
	}

	if usedBy.Valid {
		invite.UsedBy = &usedBy.Int64
	}
	if usedAt.Valid {
		invite.UsedAt = &usedAt.Time
	}
	if createdBy.Valid {
		invite.CreatedBy = &createdBy.Int64
	}
	return invite, nil
}

// MarkUsed records the consuming user. The is_used guard makes the update a
// no-op for a code that is already consumed.
func (r *PostgresInviteRepository) MarkUsed(ctx context.Context, code string, userID int64, at time.Time) error {
	query := `
		UPDATE invite_codes
		SET is_used = true, used_by = $2, used_at = $3
		WHERE code = $1 AND is_used = false
	`

	result, err := r.db.ExecContext(ctx, query, code, userID, at)
	if err != nil {
		return fmt.Errorf("failed to mark invite code used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInviteInvalid
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

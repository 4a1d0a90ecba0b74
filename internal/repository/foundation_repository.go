package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/pkg/database"
)

// PostgresFoundationRepository implements domain.FoundationRepository using PostgreSQL
type PostgresFoundationRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

// NewPostgresFoundationRepository creates a new foundation repository
func NewPostgresFoundationRepository(db database.DBTX, logger *slog.Logger) *PostgresFoundationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFoundationRepository{db: db, logger: logger}
}

// GetByUserID returns the user's foundation or domain.ErrNotFound
func (r *PostgresFoundationRepository) GetByUserID(ctx context.Context, userID int64) (*domain.UserFoundation, error) {
	query := `
		SELECT id, user_id, voice_guide, target_audience, audience_pain_points,
		       unique_positioning, audience_observations, offer_description,
		       created_at, updated_at
		FROM user_foundations
		WHERE user_id = $1
	`

	f := &domain.UserFoundation{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&f.ID,
		&f.UserID,
		&f.VoiceGuide,
		&f.TargetAudience,
		&f.AudiencePainPoints,
		&f.UniquePositioning,
		&f.AudienceObservations,
		&f.OfferDescription,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get foundation",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get foundation: %w", err)
	}
	return f, nil
}

// Upsert inserts the foundation or overwrites the existing row for the user
func (r *PostgresFoundationRepository) Upsert(ctx context.Context, f *domain.UserFoundation) error {
	query := `
		INSERT INTO user_foundations (
			user_id, voice_guide, target_audience, audience_pain_points,
			unique_positioning, audience_observations, offer_description
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			voice_guide = EXCLUDED.voice_guide,
			target_audience = EXCLUDED.target_audience,
			audience_pain_points = EXCLUDED.audience_pain_points,
			unique_positioning = EXCLUDED.unique_positioning,
			audience_observations = EXCLUDED.audience_observations,
			offer_description = EXCLUDED.offer_description,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		f.UserID,
		f.VoiceGuide,
		f.TargetAudience,
		f.AudiencePainPoints,
		f.UniquePositioning,
		f.AudienceObservations,
		f.OfferDescription,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to upsert foundation",
			slog.Int64("user_id", f.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to save foundation: %w", err)
	}
	return nil
}

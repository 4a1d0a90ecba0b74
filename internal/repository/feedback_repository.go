package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/pkg/database"
)

// PostgresFeedbackRepository implements domain.FeedbackRepository using PostgreSQL
type PostgresFeedbackRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

// NewPostgresFeedbackRepository creates a new feedback history repository
func NewPostgresFeedbackRepository(db database.DBTX, logger *slog.Logger) *PostgresFeedbackRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFeedbackRepository{db: db, logger: logger}
}

// Create appends a feedback record
func (r *PostgresFeedbackRepository) Create(ctx context.Context, record *domain.FeedbackRequest) error {
	query := `
		INSERT INTO feedback_requests (user_id, content, tool_type, feedback)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		record.UserID,
		record.Content,
		record.ToolType,
		record.Feedback,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		r.logger.Error("failed to store feedback request",
			slog.Int64("user_id", record.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to store feedback request: %w", err)
	}
	return nil
}

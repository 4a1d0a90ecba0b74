package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/aryan0dhankhar/connectcoach/internal/domain"
	"github.com/aryan0dhankhar/connectcoach/pkg/database"
)

// PostgresStore vends PostgreSQL repositories bound either to the pool or to
// an open transaction.
type PostgresStore struct {
	db     *sql.DB // nil inside a transaction
	conn   database.DBTX
	logger *slog.Logger
}

// NewPostgresStore creates a store over the connection pool
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, conn: db, logger: logger}
}

func (s *PostgresStore) Users() domain.UserRepository {
	return NewPostgresUserRepository(s.conn, s.logger)
}

func (s *PostgresStore) Invites() domain.InviteRepository {
	return NewPostgresInviteRepository(s.conn, s.logger)
}

func (s *PostgresStore) Foundations() domain.FoundationRepository {
	return NewPostgresFoundationRepository(s.conn, s.logger)
}

func (s *PostgresStore) Feedback() domain.FeedbackRepository {
	return NewPostgresFeedbackRepository(s.conn, s.logger)
}

// WithTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	return database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &PostgresStore{conn: tx, logger: s.logger})
	})
}

// Ping checks the pool; it is a no-op inside a transaction
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// pkg/anonymizer/pgstore.go
package anonymizer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/pulsemetrics/feature-ingress/pkg/config"
)

// Ensure PostgresStore implements the interface.
var _ ContentStore = (*PostgresStore)(nil)

// PostgresStore is a ContentStore backed by PostgreSQL, for hosts that need
// the re-identification cache to survive the process or be shared across
// pipeline instances.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  *zap.Logger
}

// NewPostgresStore connects to PostgreSQL and ensures the content table
// exists.
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if cfg == nil {
		return nil, errors.New("postgres configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.StatementTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &PostgresStore{
		db:      db,
		timeout: timeout,
		logger:  logger.Named("content-store"),
	}

	if err := store.setupContentTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup content table: %w", err)
	}

	return store, nil
}

// opContext bounds a statement by the configured timeout.
func (s *PostgresStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// setupContentTable ensures the anonymized_content table exists
func (s *PostgresStore) setupContentTable(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.anonymized_content (
			handle TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			captured_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create content table: %w", err)
	}

	s.logger.Info("Ensured anonymized_content table exists")
	return nil
}

// Put stores the entry under the handle. Handles are content-derived, so a
// conflicting insert carries the same value and is ignored.
func (s *PostgresStore) Put(ctx context.Context, handle string, entry ContentEntry) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public.anonymized_content (handle, content, captured_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (handle) DO NOTHING
	`, handle, entry.Content, entry.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}
	return nil
}

// Get retrieves the entry stored under the handle.
func (s *PostgresStore) Get(ctx context.Context, handle string) (ContentEntry, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var row struct {
		Content    string    `db:"content"`
		CapturedAt time.Time `db:"captured_at"`
	}

	err := s.db.GetContext(ctx, &row, `
		SELECT content, captured_at FROM public.anonymized_content WHERE handle = $1
	`, handle)
	if errors.Is(err, sql.ErrNoRows) {
		return ContentEntry{}, ErrNotFound
	}
	if err != nil {
		return ContentEntry{}, fmt.Errorf("failed to query content: %w", err)
	}

	return ContentEntry{Content: row.Content, CapturedAt: row.CapturedAt}, nil
}

// Delete removes the entry stored under the handle, if any.
func (s *PostgresStore) Delete(ctx context.Context, handle string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM public.anonymized_content WHERE handle = $1
	`, handle); err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// Purge drops every stored entry.
func (s *PostgresStore) Purge(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `TRUNCATE public.anonymized_content`); err != nil {
		return fmt.Errorf("failed to purge content table: %w", err)
	}
	s.logger.Info("Purged anonymized content store")
	return nil
}

// Close releases the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

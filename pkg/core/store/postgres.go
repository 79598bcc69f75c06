package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps documents in a JSONB column.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend wraps an open pool. Close closes the pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the assumptions table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS planning_assumptions (
			key        TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			revision   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`
	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create planning_assumptions: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var payload []byte
	err := b.pool.QueryRow(ctx, `SELECT payload FROM planning_assumptions WHERE key = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load assumptions: %w", err)
	}
	return payload, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, data []byte, revision string) error {
	if b.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		INSERT INTO planning_assumptions (key, payload, revision, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			revision = EXCLUDED.revision,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := b.pool.Exec(ctx, query, key, data, revision, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert assumptions: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

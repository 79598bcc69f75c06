package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLBackend keeps documents in a planning_assumptions table of a
// database/sql handle. OpenSQLite is the usual constructor.
type SQLBackend struct {
	db *sql.DB
}

// NewSQLBackend wraps an open handle. The schema is not touched; call Migrate.
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLBackend, error) {
	if path == "" {
		path = filepath.Join("data", "planning.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	b := NewSQLBackend(db)
	if err := b.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// Migrate creates the assumptions table if it does not exist.
func (b *SQLBackend) Migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS planning_assumptions (
		key        TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		revision   TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM planning_assumptions WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load assumptions: %w", err)
	}
	return []byte(payload), nil
}

func (b *SQLBackend) Put(ctx context.Context, key string, data []byte, revision string) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO planning_assumptions (key, payload, revision, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			revision = excluded.revision,
			updated_at = excluded.updated_at`,
		key, string(data), revision, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert assumptions: %w", err)
	}
	return nil
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

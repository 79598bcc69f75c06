// Package store persists planning assumptions under a single fixed key.
// Backends only move bytes; decoding, migration and default filling happen in
// package assumption.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"noro_planning/pkg/core/assumption"
)

// StorageKey is the key every backend stores the assumptions under.
const StorageKey = "noro.financial-assumptions"

// ErrNotFound is returned when nothing has been saved under the key yet.
var ErrNotFound = errors.New("no saved assumptions")

// Backend is a flat key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, revision string) error
	Close() error
}

// AssumptionStore saves and loads the assumptions through a Backend.
type AssumptionStore struct {
	backend Backend
	key     string
}

// NewAssumptionStore wraps b under StorageKey.
func NewAssumptionStore(b Backend) *AssumptionStore {
	return &AssumptionStore{backend: b, key: StorageKey}
}

// Load returns the saved document, migrated to the current schema.
func (s *AssumptionStore) Load(ctx context.Context) (*assumption.Document, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	doc, err := assumption.DecodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode saved assumptions: %w", err)
	}
	return doc, nil
}

// Save validates a and writes it under a new revision, which is returned.
func (s *AssumptionStore) Save(ctx context.Context, a *assumption.Assumptions) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	data, rev, err := assumption.Encode(a)
	if err != nil {
		return "", err
	}
	if err := s.backend.Put(ctx, s.key, data, rev); err != nil {
		return "", fmt.Errorf("failed to save assumptions: %w", err)
	}
	return rev, nil
}

// Reset saves and returns a fresh copy of the defaults.
func (s *AssumptionStore) Reset(ctx context.Context) (*assumption.Assumptions, error) {
	a := assumption.Defaults()
	if _, err := s.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadOrDefault never fails: a missing, unreadable or invalid document is
// logged and replaced by the defaults.
func (s *AssumptionStore) LoadOrDefault(ctx context.Context) *assumption.Assumptions {
	logger := zerolog.Ctx(ctx)

	doc, err := s.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Info().Str("key", s.key).Msg("no saved assumptions, using defaults")
		return assumption.Defaults()
	case err != nil:
		logger.Error().Err(err).Str("key", s.key).Msg("failed to load assumptions, using defaults")
		return assumption.Defaults()
	}

	if err := doc.Assumptions.Validate(); err != nil {
		logger.Error().Err(err).Str("revision", doc.Revision).Msg("saved assumptions are invalid, using defaults")
		return assumption.Defaults()
	}
	if doc.Repaired {
		logger.Warn().Str("revision", doc.Revision).Msg("saved assumptions were damaged and repaired on load")
	}
	logger.Debug().Str("revision", doc.Revision).Time("saved_at", doc.SavedAt).Msg("assumptions loaded")
	return doc.Assumptions
}

// Close releases the backend.
func (s *AssumptionStore) Close() error {
	return s.backend.Close()
}

// -----------------------------------------------------------------------------
// Backend selection
// -----------------------------------------------------------------------------

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Settings selects and configures a backend.
type Settings struct {
	Backend     string
	Dir         string // file
	SQLitePath  string // sqlite
	DatabaseURL string // postgres
}

// Open connects the configured backend and prepares its schema.
func Open(ctx context.Context, s Settings) (Backend, error) {
	switch s.Backend {
	case BackendFile, "":
		return NewFileBackend(s.Dir)
	case BackendSQLite:
		return OpenSQLite(ctx, s.SQLitePath)
	case BackendPostgres:
		pool, err := NewPool(ctx, s.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b := NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
}

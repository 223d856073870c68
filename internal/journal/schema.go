package journal

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version and bumped whenever
// schema.sql changes incompatibly. A fresh database reports 0.
const schemaVersion = 1

// ErrSchemaMismatch indicates the journal was written by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		return retryOnBusy(ctx, func() error { return s.createSchema(ctx) })
	default:
		return fmt.Errorf("%w: journal %s has version %d, expected %d (delete it to start a fresh history)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

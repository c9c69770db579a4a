// Package warehouse stores task revisions in an append-only table and
// projects the latest state of each task out of it. Writes go through a
// staged reconcile so that re-running a sync never duplicates rows.
package warehouse

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oknozoka/asanasync/internal/warehouse/driver"
)

//go:embed schema
var schemaFS embed.FS

const migrationPrefix = "warehouse"

// Store wraps a database connection and the reconcile/query operations
// built on top of it.
type Store struct {
	drv driver.Driver
}

// Open opens a store on the given dialect and DSN and applies pending
// migrations.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	d, err := driver.ParseDialect(dialect)
	if err != nil {
		return nil, err
	}
	drv, err := driver.New(d)
	if err != nil {
		return nil, err
	}
	if d == driver.DialectSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	if err := drv.Open(dsn); err != nil {
		return nil, err
	}
	s := &Store{drv: drv}
	if err := s.Migrate(ctx); err != nil {
		_ = drv.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens a throwaway SQLite store. Used by tests and dry runs.
func OpenInMemory(ctx context.Context) (*Store, error) {
	return Open(ctx, "sqlite", ":memory:")
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.drv.Migrate(ctx, schemaFS, migrationPrefix); err != nil {
		return fmt.Errorf("migrate warehouse schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Driver exposes the underlying driver for dialect-aware queries.
func (s *Store) Driver() driver.Driver {
	return s.drv
}

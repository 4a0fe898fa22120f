// Package sqlite persists documents in an embedded SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"fishlog/internal/infra/storage/sqldoc"
	"fishlog/internal/logging"
)

const defaultPath = "fishlog.db"

var dialect = sqldoc.Dialect{
	Name: "sqlite",
	CreateTable: `CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`,
	Select: `SELECT payload FROM documents WHERE name = ?`,
	Upsert: `INSERT INTO documents(name,payload) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload`,
}

// Store is a sqlite-backed storage.Provider.
type Store struct {
	*sqldoc.Store
	path string
}

// New opens (creating when needed) the database at path.
func New(ctx context.Context, path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection serialises writers on the file
	db.SetMaxOpenConns(1)
	docs, err := sqldoc.New(ctx, db, dialect, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: docs, path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Shutdown closes the database.
func (s *Store) Shutdown(context.Context) error { return s.DB().Close() }

// Package postgres persists documents in a PostgreSQL table through pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"fishlog/internal/infra/storage/sqldoc"
	"fishlog/internal/logging"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/fishlog?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var dialect = sqldoc.Dialect{
	Name: "postgres",
	CreateTable: `CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`,
	Select: `SELECT payload FROM documents WHERE name = $1`,
	Upsert: `INSERT INTO documents(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload`,
}

// Store is a postgres-backed storage.Provider.
type Store struct {
	*sqldoc.Store
}

// New connects using dsn (falls back to defaultDSN) and ensures the documents table.
func New(ctx context.Context, dsn string, logger logging.Logger) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	docs, err := sqldoc.New(ctx, db, dialect, logger)
	if err != nil {
		return nil, err
	}
	return &Store{Store: docs}, nil
}

// Shutdown closes the connection pool.
func (s *Store) Shutdown(context.Context) error { return s.DB().Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

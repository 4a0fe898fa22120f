// Package sqldoc stores whole documents as rows of a two-column table and is
// shared by the sqlite and postgres storage backends.
package sqldoc

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"

	"fishlog/internal/logging"
	"fishlog/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

// Dialect carries the statements that differ between databases.
type Dialect struct {
	Name        string
	CreateTable string
	Select      string // one placeholder: name
	Upsert      string // two placeholders: name, payload
}

// Store implements storage.Provider on a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  logging.Logger
	mu      sync.Mutex
}

// New ensures the documents table exists and returns the provider.
func New(ctx context.Context, db *sql.DB, dialect Dialect, logger logging.Logger) (*Store, error) {
	if _, err := db.ExecContext(ctx, dialect.CreateTable); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{db: db, dialect: dialect, logger: logging.OrNoop(logger)}, nil
}

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Input returns the stored payload of name, or an empty stream.
func (s *Store) Input(ctx context.Context, name string) (io.ReadCloser, error) {
	payload, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (s *Store) load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Select, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	return payload, nil
}

// Output buffers the document and upserts it in one transaction on Close.
func (s *Store) Output(ctx context.Context, name string) (io.WriteCloser, error) {
	return &sink{ctx: ctx, store: s, name: name}, nil
}

func (s *Store) save(ctx context.Context, name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, s.dialect.Upsert, name, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	s.logger.Debug("document stored", "driver", s.dialect.Name, "resource", name, "bytes", len(payload))
	return nil
}

type sink struct {
	ctx    context.Context
	store  *Store
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *sink) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *sink) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.store.save(w.ctx, w.name, w.buf.Bytes())
}

// CloseWithError drops the buffered document.
func (w *sink) CloseWithError(err error) error {
	w.closed = true
	w.store.logger.Warn("document write discarded", "driver", w.store.dialect.Name, "resource", w.name, "error", err)
	return nil
}

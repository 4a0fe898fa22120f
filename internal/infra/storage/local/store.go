// Package local implements storage.Provider on a directory of the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fishlog/internal/logging"
	"fishlog/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

// Store maps resource names to files under root. Writes go to a temp file in
// the same directory which replaces the target on Close, so a reader never
// observes a half-written document.
type Store struct {
	root   string
	logger logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for write diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNoop(l) }
}

// New returns a filesystem-backed provider rooted at path, creating it if needed.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	s := &Store{root: root, logger: logging.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the directory holding the documents.
func (s *Store) Root() string { return s.root }

// sanitizeKey ensures key doesn't escape root and forbids path traversal and absolute paths.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid key traversal")
	}
	return clean, nil
}

func (s *Store) pathFor(name string) (string, error) {
	k, err := sanitizeKey(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

// Input opens the file for name. A missing file yields an empty stream.
func (s *Store) Input(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Output returns a sink replacing the file for name when closed.
func (s *Store) Output(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return nil, err
	}
	return &fileSink{tmp: tmp, target: path, logger: s.logger, started: time.Now()}, nil
}

type fileSink struct {
	mu      sync.Mutex
	tmp     *os.File
	target  string
	logger  logging.Logger
	started time.Time
	done    bool
}

func (f *fileSink) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return 0, os.ErrClosed
	}
	return f.tmp.Write(p)
}

// Close syncs the temp file and atomically moves it into place.
func (f *fileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return nil
	}
	f.done = true
	defer func() { _ = os.Remove(f.tmp.Name()) }()
	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		return err
	}
	if err := f.tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.tmp.Name(), f.target); err != nil {
		return err
	}
	f.logger.Debug("document written", "path", f.target, "elapsed", time.Since(f.started))
	return nil
}

// CloseWithError discards the pending content and keeps the previous file.
func (f *fileSink) CloseWithError(cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return nil
	}
	f.done = true
	_ = f.tmp.Close()
	f.logger.Warn("document write aborted", "path", f.target, "error", cause)
	return os.Remove(f.tmp.Name())
}

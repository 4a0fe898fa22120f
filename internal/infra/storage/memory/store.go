// Package memory provides an in-process storage.Provider that also records
// every stream it hands out, so tests can assert which documents were touched.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"fishlog/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

// Call is one recorded provider call.
type Call struct {
	Op   string // input|output
	Name string
}

// Store keeps committed documents in a map.
type Store struct {
	mu    sync.Mutex
	docs  map[string][]byte
	calls []Call
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Seed sets the content of name directly, without recording a call.
func (s *Store) Seed(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = bytes.Clone(content)
}

// Content returns the committed content of name.
func (s *Store) Content(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.docs[name]
	return bytes.Clone(b), ok
}

// Calls returns the recorded calls in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Outputs returns the names passed to Output, in order.
func (s *Store) Outputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		if c.Op == "output" {
			out = append(out, c.Name)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps content.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Input returns the committed content of name, or an empty stream.
func (s *Store) Input(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "input", Name: name})
	return io.NopCloser(bytes.NewReader(bytes.Clone(s.docs[name]))), nil
}

// Output returns a sink committing on Close.
func (s *Store) Output(_ context.Context, name string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "output", Name: name})
	return &sink{store: s, name: name}, nil
}

type sink struct {
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
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.docs[w.name] = bytes.Clone(w.buf.Bytes())
	return nil
}

func (w *sink) CloseWithError(error) error {
	w.closed = true
	return nil
}

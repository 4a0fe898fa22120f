// Package memory implements an in-memory object store for tests. An optional
// per-call latency turns it into a slow remote stand-in.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"fishlog/internal/blob/core"
)

var _ core.ObjectStore = (*Store)(nil)

type object struct {
	info core.Info
	data []byte
}

// Event records a completed store call, in completion order.
type Event struct {
	Op   string // create|update|download
	Name string
	Size int
}

// Store implements core.ObjectStore backed by process memory.
type Store struct {
	mu      sync.RWMutex
	objs    map[string]*object // by id
	byName  map[string]string  // name -> id
	latency time.Duration
	events  []Event
	created bool
}

// Option configures a Store.
type Option func(*Store)

// WithLatency delays every transfer by d. Uploads pay it again for each
// chunk read from the source, so a writer feeding the source is paced.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// New returns an in-memory object store.
func New(opts ...Option) *Store {
	s := &Store{objs: make(map[string]*object), byName: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver returns the object store driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// chunkSize is how much an upload reads from its source per step.
const chunkSize = 32 << 10

// receive reads r to the end, waiting for the latency before every read.
func (s *Store) receive(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// EnsureContainer marks the container as created.
func (s *Store) EnsureContainer(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

// ContainerCreated reports whether EnsureContainer ran.
func (s *Store) ContainerCreated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created
}

// Find returns the object named name.
func (s *Store) Find(_ context.Context, name string) (core.Info, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return core.Info{}, false, nil
	}
	return s.objs[id].info, true, nil
}

// Create inserts a new object; fails when name is taken.
func (s *Store) Create(ctx context.Context, name string, r io.Reader) (core.Info, error) {
	b, err := s.receive(ctx, r)
	if err != nil {
		return core.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; exists {
		return core.Info{}, fmt.Errorf("object %s already exists", name)
	}
	info := core.Info{ID: uuid.NewString(), Name: name, Size: int64(len(b)), LastModified: time.Now().UTC()}
	s.objs[info.ID] = &object{info: info, data: b}
	s.byName[name] = info.ID
	s.events = append(s.events, Event{Op: "create", Name: name, Size: len(b)})
	return info, nil
}

// Update replaces the content of object id.
func (s *Store) Update(ctx context.Context, id string, r io.Reader) (core.Info, error) {
	b, err := s.receive(ctx, r)
	if err != nil {
		return core.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objs[id]
	if !ok {
		return core.Info{}, core.ErrNotFound
	}
	obj.data = b
	obj.info.Size = int64(len(b))
	obj.info.LastModified = time.Now().UTC()
	s.events = append(s.events, Event{Op: "update", Name: obj.info.Name, Size: len(b)})
	return obj.info, nil
}

// Download copies the content of object id into w.
func (s *Store) Download(ctx context.Context, id string, w io.Writer) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.RLock()
	obj, ok := s.objs[id]
	var data []byte
	var name string
	if ok {
		data = bytes.Clone(obj.data)
		name = obj.info.Name
	}
	s.mu.RUnlock()
	if !ok {
		return core.ErrNotFound
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	s.mu.Lock()
	s.events = append(s.events, Event{Op: "download", Name: name, Size: len(data)})
	s.mu.Unlock()
	return nil
}

// Content returns a copy of the object named name.
func (s *Store) Content(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return bytes.Clone(s.objs[id].data), true
}

// Events returns the completed calls in completion order.
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Package remote implements a storage.Provider that transfers documents to and
// from an object store in the background. Every resource name owns one worker
// that runs its transfers one at a time in submission order, so writes to the
// same name never reorder while different names proceed in parallel.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"fishlog/internal/blob/core"
	"fishlog/internal/logging"
	"fishlog/internal/storage"
)

var (
	_ storage.Provider   = (*Backend)(nil)
	_ storage.Shutdowner = (*Backend)(nil)
)

// ErrShutdown is returned by Input and Output after Shutdown was called.
var ErrShutdown = errors.New("remote storage: shut down")

const (
	defaultPipeCapacity = 16
	defaultDrainTimeout = 30 * time.Second
)

// Backend is the asynchronous object store provider.
type Backend struct {
	objects      core.ObjectStore
	logger       logging.Logger
	metrics      *Metrics
	pipeCapacity int
	drainTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	workers  map[string]*worker
	shutdown bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l logging.Logger) Option {
	return func(b *Backend) { b.logger = logging.OrNoop(l) }
}

// WithPipeCapacity bounds the number of chunks buffered between a caller and
// the transfer in flight.
func WithPipeCapacity(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.pipeCapacity = n
		}
	}
}

// WithDrainTimeout bounds how long Shutdown waits for each worker.
func WithDrainTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.drainTimeout = d
		}
	}
}

// WithMetrics reports transfers through m.
func WithMetrics(m *Metrics) Option {
	return func(b *Backend) {
		if m != nil {
			b.metrics = m
		}
	}
}

// New returns a backend transferring through objects. The object store
// container is expected to exist already (see blob.Open).
func New(objects core.ObjectStore, opts ...Option) *Backend {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Backend{
		objects:      objects,
		logger:       logging.Noop(),
		metrics:      NewMetrics(nil),
		pipeCapacity: defaultPipeCapacity,
		drainTimeout: defaultDrainTimeout,
		ctx:          ctx,
		cancel:       cancel,
		workers:      make(map[string]*worker),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// workerFor returns the worker owning name, starting it on first use.
func (b *Backend) workerFor(name string) (*worker, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return nil, ErrShutdown
	}
	if w, ok := b.workers[name]; ok {
		return w, nil
	}
	w := newWorker(name)
	b.workers[name] = w
	b.metrics.Workers.Inc()
	go w.run(b.ctx)
	return w, nil
}

func (b *Backend) submit(name string, t task) error {
	w, err := b.workerFor(name)
	if err != nil {
		return err
	}
	b.metrics.Queued.Inc()
	if !w.submit(func(ctx context.Context) {
		defer b.metrics.Queued.Dec()
		t(ctx)
	}) {
		b.metrics.Queued.Dec()
		return ErrShutdown
	}
	return nil
}

// Output returns a sink immediately; its bytes are uploaded by the worker of
// name once every earlier transfer of that name has finished. The sink blocks
// while the pipe is full. Upload failures are logged and counted, they are not
// reported through the sink.
func (b *Backend) Output(_ context.Context, name string) (io.WriteCloser, error) {
	r, w := NewPipe(b.pipeCapacity)
	err := b.submit(name, func(ctx context.Context) {
		start := time.Now()
		err := b.upload(ctx, name, r)
		if err != nil {
			_ = r.CloseWithError(fmt.Errorf("upload %s: %w", name, err))
			b.logger.Error("remote upload failed", "resource", name, "error", err)
		} else {
			_ = r.Close()
			b.logger.Debug("remote upload done", "resource", name)
		}
		b.observe(opUpload, start, err)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (b *Backend) upload(ctx context.Context, name string, r io.Reader) error {
	info, found, err := b.objects.Find(ctx, name)
	if err != nil {
		return err
	}
	if found {
		_, err = b.objects.Update(ctx, info.ID, r)
		return err
	}
	_, err = b.objects.Create(ctx, name, r)
	return err
}

// Input returns a source immediately; the worker of name downloads into it
// after earlier transfers of that name. A missing object yields an empty
// stream.
func (b *Backend) Input(_ context.Context, name string) (io.ReadCloser, error) {
	r, w := NewPipe(b.pipeCapacity)
	err := b.submit(name, func(ctx context.Context) {
		start := time.Now()
		err := b.download(ctx, name, w)
		if err != nil {
			_ = w.CloseWithError(fmt.Errorf("download %s: %w", name, err))
			b.logger.Error("remote download failed", "resource", name, "error", err)
		} else {
			_ = w.Close()
		}
		b.observe(opDownload, start, err)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *Backend) download(ctx context.Context, name string, w io.Writer) error {
	info, found, err := b.objects.Find(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		b.logger.Debug("remote object missing, returning empty stream", "resource", name)
		return nil
	}
	return b.objects.Download(ctx, info.ID, w)
}

func (b *Backend) observe(op string, start time.Time, err error) {
	b.metrics.Transfers.WithLabelValues(op, result(err)).Inc()
	b.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Shutdown stops intake and waits for every worker to finish its queue,
// giving each at most the drain timeout. Workers still running afterwards
// are abandoned and their transfers cancelled; the returned error names them.
func (b *Backend) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return nil
	}
	b.shutdown = true
	workers := make([]*worker, 0, len(b.workers))
	for _, w := range b.workers {
		workers = append(workers, w)
	}
	b.mu.Unlock()
	defer b.cancel()

	sort.Slice(workers, func(i, j int) bool { return workers[i].name < workers[j].name })
	for _, w := range workers {
		w.close()
	}
	var abandoned []string
	for _, w := range workers {
		if b.drain(ctx, w) {
			b.metrics.Workers.Dec()
			continue
		}
		abandoned = append(abandoned, w.name)
		b.metrics.Abandoned.Inc()
		b.logger.Warn("abandoning remote worker", "resource", w.name, "timeout", b.drainTimeout)
	}
	if len(abandoned) > 0 {
		return fmt.Errorf("remote storage: abandoned workers %v", abandoned)
	}
	b.logger.Info("remote storage drained", "workers", len(workers))
	return nil
}

func (b *Backend) drain(ctx context.Context, w *worker) bool {
	t := time.NewTimer(b.drainTimeout)
	defer t.Stop()
	select {
	case <-w.done:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

package remote

import (
	"context"
	"sync"
)

type task func(ctx context.Context)

// worker runs the transfers of one resource name strictly in submission order.
// Its queue is unbounded; backpressure comes from the pipes, not the queue.
type worker struct {
	name string

	mu      sync.Mutex
	queue   []task
	closing bool
	wake    chan struct{}
	done    chan struct{}
}

func newWorker(name string) *worker {
	return &worker{name: name, wake: make(chan struct{}, 1), done: make(chan struct{})}
}

func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// submit appends t; it reports false once the worker is closing.
func (w *worker) submit(t task) bool {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, t)
	w.mu.Unlock()
	w.signal()
	return true
}

// close stops intake; already queued tasks still run.
func (w *worker) close() {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
	w.signal()
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 {
			if w.closing {
				w.mu.Unlock()
				return
			}
			w.mu.Unlock()
			<-w.wake
			w.mu.Lock()
		}
		t := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.mu.Unlock()
		t(ctx)
	}
}

package remote

import (
	"io"
	"sync"
)

// maxChunk bounds the size of a single buffered write.
const maxChunk = 32 << 10

// Pipe connects one writer goroutine to one reader goroutine through a
// channel of at most capacity chunks. Writes block while the channel is full,
// which throttles a fast producer to the pace of a slow remote transfer.
// Closing either end with an error surfaces that error on the other end.
type Pipe struct {
	ch chan []byte

	mu      sync.Mutex
	werr    error
	rerr    error
	wdone   chan struct{}
	rdone   chan struct{}
	wclosed bool
	rclosed bool
}

// NewPipe returns the two ends of a bounded pipe. capacity < 1 is treated as 1.
func NewPipe(capacity int) (*PipeReader, *PipeWriter) {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pipe{
		ch:    make(chan []byte, capacity),
		wdone: make(chan struct{}),
		rdone: make(chan struct{}),
	}
	return &PipeReader{p: p}, &PipeWriter{p: p}
}

func (p *Pipe) closeWrite(err error) {
	if err == nil {
		err = io.EOF
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.wclosed {
		return
	}
	p.wclosed = true
	p.werr = err
	close(p.wdone)
}

func (p *Pipe) closeRead(err error) {
	if err == nil {
		err = io.ErrClosedPipe
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rclosed {
		return
	}
	p.rclosed = true
	p.rerr = err
	close(p.rdone)
}

func (p *Pipe) writeErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.werr
}

func (p *Pipe) readErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rerr
}

// PipeReader is the consuming end of a Pipe.
type PipeReader struct {
	p       *Pipe
	pending []byte
}

// Read returns buffered bytes, blocking until a chunk arrives or the writer
// closes. After the writer closes, remaining chunks are still delivered
// before its close error (io.EOF on a clean close).
func (r *PipeReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(r.pending) == 0 {
		select {
		case <-r.p.rdone:
			return 0, io.ErrClosedPipe
		case chunk := <-r.p.ch:
			r.pending = chunk
		case <-r.p.wdone:
			select {
			case chunk := <-r.p.ch:
				r.pending = chunk
			default:
				return 0, r.p.writeErr()
			}
		}
	}
	n := copy(b, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// Close closes the reader; subsequent writes fail with io.ErrClosedPipe.
func (r *PipeReader) Close() error {
	return r.CloseWithError(nil)
}

// CloseWithError closes the reader; subsequent writes fail with err.
func (r *PipeReader) CloseWithError(err error) error {
	r.p.closeRead(err)
	return nil
}

// PipeWriter is the producing end of a Pipe.
type PipeWriter struct {
	p *Pipe
}

// Write copies b into the pipe in chunks, blocking while the pipe is full.
func (w *PipeWriter) Write(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		select {
		case <-w.p.wdone:
			return n, io.ErrClosedPipe
		case <-w.p.rdone:
			return n, w.p.readErr()
		default:
		}
		size := len(b)
		if size > maxChunk {
			size = maxChunk
		}
		chunk := make([]byte, size)
		copy(chunk, b[:size])
		select {
		case w.p.ch <- chunk:
			n += size
			b = b[size:]
		case <-w.p.rdone:
			return n, w.p.readErr()
		case <-w.p.wdone:
			return n, io.ErrClosedPipe
		}
	}
	return n, nil
}

// Close closes the writer; the reader sees io.EOF once drained.
func (w *PipeWriter) Close() error {
	return w.CloseWithError(nil)
}

// CloseWithError closes the writer; the reader sees err once drained.
func (w *PipeWriter) CloseWithError(err error) error {
	w.p.closeWrite(err)
	return nil
}

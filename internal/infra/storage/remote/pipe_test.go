package remote

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeDeliversBytesThenEOF(t *testing.T) {
	r, w := NewPipe(4)
	go func() {
		_, _ = w.Write([]byte("hello "))
		_, _ = w.Write([]byte("world"))
		_ = w.Close()
	}()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestPipeSplitsLargeWrites(t *testing.T) {
	r, w := NewPipe(2)
	payload := bytes.Repeat([]byte("x"), 3*maxChunk+7)
	done := make(chan error, 1)
	go func() {
		_, err := w.Write(payload)
		_ = w.Close()
		done <- err
	}()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, len(payload), len(got))
}

func TestPipeBlocksWriterWhenFull(t *testing.T) {
	r, w := NewPipe(1)
	_, err := w.Write([]byte("a"))
	require.NoError(t, err)

	written := make(chan struct{})
	go func() {
		_, _ = w.Write([]byte("b"))
		close(written)
	}()
	select {
	case <-written:
		t.Fatal("write should block while the pipe is full")
	case <-time.After(50 * time.Millisecond):
	}

	buf := make([]byte, 1)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "a", string(buf[:n]))
	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("write should resume once the reader drains a chunk")
	}
}

func TestPipeReaderErrorReachesWriter(t *testing.T) {
	r, w := NewPipe(1)
	boom := errors.New("upload failed")
	_ = r.CloseWithError(boom)
	_, err := w.Write([]byte("data"))
	assert.ErrorIs(t, err, boom)
}

func TestPipeWriterErrorReachesReader(t *testing.T) {
	r, w := NewPipe(2)
	boom := errors.New("download failed")
	_, _ = w.Write([]byte("part"))
	_ = w.CloseWithError(boom)

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "part", string(buf[:n]))
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, boom)
}

func TestPipeWriteAfterClose(t *testing.T) {
	_, w := NewPipe(1)
	require.NoError(t, w.Close())
	_, err := w.Write([]byte("late"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

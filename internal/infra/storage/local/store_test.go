package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func readAll(t *testing.T, s *Store, name string) string {
	t.Helper()
	r, err := s.Input(context.Background(), name)
	if err != nil {
		t.Fatalf("input %s: %v", name, err)
	}
	defer func() { _ = r.Close() }()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := readAll(t, s, "Trip.json"); got != "" {
		t.Fatalf("expected empty stream, got %q", got)
	}
}

func TestStore_OutputReplacesOnClose(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, content := range []string{"[1]", "[2]"} {
		w, err := s.Output(ctx, "Specie.json")
		if err != nil {
			t.Fatalf("output: %v", err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("write: %v", err)
		}
		if got := readAll(t, s, "Specie.json"); content == "[1]" && got != "" {
			t.Fatalf("content visible before close: %q", got)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	if got := readAll(t, s, "Specie.json"); got != "[2]" {
		t.Fatalf("expected latest content, got %q", got)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Fatalf("expected only the document in root, got %d entries", len(entries))
	}
}

func TestStore_AbortKeepsPreviousContent(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	w, _ := s.Output(ctx, "Trip.json")
	_, _ = io.WriteString(w, "old")
	_ = w.Close()

	w, _ = s.Output(ctx, "Trip.json")
	_, _ = io.WriteString(w, "half")
	aborter, ok := w.(interface{ CloseWithError(error) error })
	if !ok {
		t.Fatalf("sink does not support aborting")
	}
	if err := aborter.CloseWithError(errors.New("encode failed")); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Fatalf("expected write after abort to fail")
	}
	if got := readAll(t, s, "Trip.json"); got != "old" {
		t.Fatalf("expected previous content, got %q", got)
	}
}

func TestStore_RejectsTraversal(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, name := range []string{"", "../escape.json", "/abs.json", "a/../../b"} {
		if _, err := s.Output(context.Background(), name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
		if _, err := s.Input(context.Background(), name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "nested"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Input(ctx, "Trip.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if _, err := s.Output(ctx, "Trip.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

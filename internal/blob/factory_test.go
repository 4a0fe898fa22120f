package blob

import (
	"context"
	"testing"
	"time"
)

func TestOpenMemoryEnsuresContainer(t *testing.T) {
	store, err := Open(context.Background(), string(DriverMemory), S3Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mem, ok := store.(*MemoryStore)
	if !ok {
		t.Fatalf("expected *MemoryStore, got %T", store)
	}
	if !mem.ContainerCreated() {
		t.Fatalf("expected container to be created")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	if _, err := Open(context.Background(), "", S3Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "gcs", S3Config{}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestMockS3ForTests(t *testing.T) {
	store := NewMockS3ForTests("fishlog")
	if store.Driver() != DriverS3 {
		t.Fatalf("expected s3 driver")
	}
	if err := store.EnsureContainer(context.Background()); err != nil {
		t.Fatalf("ensure container: %v", err)
	}
}

func TestNewSlowMemory(t *testing.T) {
	store := NewSlowMemory(time.Millisecond)
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver")
	}
}

package blob

import (
	"time"

	memorystore "fishlog/internal/infra/blob/memory"
)

type (
	// MemoryStore is the in-memory ObjectStore.
	MemoryStore = memorystore.Store
	// MemoryEvent is a completed call recorded by MemoryStore.
	MemoryEvent = memorystore.Event
)

// NewMemory returns an in-memory ObjectStore suitable for tests.
func NewMemory() *MemoryStore { return memorystore.New() }

// NewSlowMemory returns an in-memory ObjectStore delaying every transfer by latency.
func NewSlowMemory(latency time.Duration) *MemoryStore {
	return memorystore.New(memorystore.WithLatency(latency))
}

// Package core defines the object store abstraction the remote storage
// backend transfers documents through.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete object store implementation.
type Driver string

const (
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3" // S3 / MinIO compatible
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory" // in-memory (tests)
)

// Info describes a stored object.
type Info struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size_bytes"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStore is a named-object store scoped to one application container.
// Objects are looked up by name and addressed by id once found.
type ObjectStore interface {
	// EnsureContainer creates the application container when missing.
	EnsureContainer(ctx context.Context) error
	// Find looks up an object by name. found is false when there is none.
	Find(ctx context.Context, name string) (info Info, found bool, err error)
	// Create inserts a new object named name with the content of r.
	Create(ctx context.Context, name string, r io.Reader) (Info, error)
	// Update replaces the content of the object with the given id.
	Update(ctx context.Context, id string, r io.Reader) (Info, error)
	// Download streams the content of the object with the given id into w.
	Download(ctx context.Context, id string, w io.Writer) error
	// Driver returns the configured backend driver string.
	Driver() Driver
}

// ErrNotFound is returned when an object id does not resolve.
var ErrNotFound = errors.New("objectstore: object not found")

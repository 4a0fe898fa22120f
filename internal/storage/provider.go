// Package storage defines the byte-stream abstraction documents are written to
// and read from, and names the available backends.
package storage

import (
	"context"
	"io"
)

// Driver identifies a concrete storage backend implementation.
type Driver string

const (
	DriverLocal    Driver = "local"    // files in a directory (default)
	DriverRemote   Driver = "remote"   // asynchronous object store (S3 / MinIO)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
	DriverMemory   Driver = "memory"   // in-process (tests)
)

// Provider hands out byte streams keyed by resource name.
//
// Input returns the stored bytes of name, or an empty stream when nothing has
// been stored yet; a missing resource is never an error. Output returns a sink
// whose Close commits the new content. Implementations may perform the actual
// transfer in the background, in which case reads and writes on the returned
// streams block on transfer progress.
type Provider interface {
	Input(ctx context.Context, name string) (io.ReadCloser, error)
	Output(ctx context.Context, name string) (io.WriteCloser, error)
}

// Shutdowner is implemented by providers holding background work that must be
// drained before the process exits.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

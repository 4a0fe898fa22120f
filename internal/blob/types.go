// Package blob re-exports core object store abstractions for stable imports
// and selects a concrete implementation from configuration.
package blob

import (
	"fishlog/internal/blob/core"
)

type (
	// Driver identifies an object store driver.
	Driver = core.Driver
	// Info describes stored object metadata.
	Info = core.Info
	// ObjectStore is the interface for remote object stores.
	ObjectStore = core.ObjectStore
)

const (
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrNotFound indicates an object id does not resolve.
var ErrNotFound = core.ErrNotFound

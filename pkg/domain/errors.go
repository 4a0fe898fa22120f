package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrPrecondition marks a rejected operation that would break referential integrity.
	ErrPrecondition = errors.New("precondition failed")
	// ErrNotFound marks a lookup of an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a failed document read or write.
	ErrStorage = errors.New("storage failure")
)

// PreconditionError is returned when an operation is rejected before any state changes.
type PreconditionError struct {
	Op     string
	Reason string
	IDs    []string
}

func (e PreconditionError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Reason, strings.Join(e.IDs, ", "))
}

// Is reports whether target is ErrPrecondition.
func (e PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// NotFoundError is returned when an entity id is not present.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps an I/O failure on a document.
type StorageError struct {
	Op       string
	Resource string
	Err      error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

// Unwrap exposes the underlying I/O error.
func (e StorageError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStorage.
func (e StorageError) Is(target error) bool { return target == ErrStorage }

package codec

import (
	"context"
	"fmt"
	"io"

	"fishlog/internal/storage"
	"fishlog/pkg/domain"
)

// Codec maps one entity type to and from documents.
type Codec[T any] interface {
	// Resource is the storage key of the document file.
	Resource() string
	Encode(T) Document
	Decode(Document) (T, error)
}

// Lookup resolves a cross-reference id to an already loaded entity.
type Lookup[T any] func(id string) (T, bool)

// MapLookup adapts an id-keyed map into a Lookup.
func MapLookup[T any](m map[string]T) Lookup[T] {
	return func(id string) (T, bool) {
		v, ok := m[id]
		return v, ok
	}
}

// Reader is an opened document source. Opening may already start fetching
// bytes; parsing only happens in Load.
type Reader struct {
	resource string
	rc       io.ReadCloser
	err      error
}

// Open obtains a reader for resource without consuming it.
func Open(ctx context.Context, p storage.Provider, resource string) *Reader {
	rc, err := p.Input(ctx, resource)
	return &Reader{resource: resource, rc: rc, err: err}
}

// Documents blocks until the whole stream is read, parses it and closes the source.
func (r *Reader) Documents() ([]Document, error) {
	if r.err != nil {
		return nil, domain.StorageError{Op: "open", Resource: r.resource, Err: r.err}
	}
	if r.rc == nil {
		return nil, domain.StorageError{Op: "read", Resource: r.resource, Err: fmt.Errorf("reader already consumed")}
	}
	rc := r.rc
	r.rc = nil
	docs, err := DecodeDocuments(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, domain.StorageError{Op: "read", Resource: r.resource, Err: err}
	}
	if closeErr != nil {
		return nil, domain.StorageError{Op: "close", Resource: r.resource, Err: closeErr}
	}
	return docs, nil
}

// Close releases the source when the reader is abandoned without Load.
func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	rc := r.rc
	r.rc = nil
	return rc.Close()
}

// Load reads every entity from r using c.
func Load[T any](r *Reader, c Codec[T]) ([]T, error) {
	docs, err := r.Documents()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		v, err := c.Decode(doc)
		if err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", c.Resource(), i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Write encodes items in the given order as the whole document of c and
// blocks until the sink is written and closed.
func Write[T any](ctx context.Context, p storage.Provider, c Codec[T], items []T) error {
	docs := make([]Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, c.Encode(item))
	}
	w, err := p.Output(ctx, c.Resource())
	if err != nil {
		return domain.StorageError{Op: "open", Resource: c.Resource(), Err: err}
	}
	if err := EncodeDocuments(w, docs); err != nil {
		if ab, ok := w.(interface{ CloseWithError(error) error }); ok {
			_ = ab.CloseWithError(err)
		} else {
			_ = w.Close()
		}
		return domain.StorageError{Op: "write", Resource: c.Resource(), Err: err}
	}
	if err := w.Close(); err != nil {
		return domain.StorageError{Op: "close", Resource: c.Resource(), Err: err}
	}
	return nil
}

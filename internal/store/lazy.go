package store

import (
	"context"

	"fishlog/internal/storage"
	"fishlog/pkg/domain"
)

var _ domain.PersistentStore = (*Lazy)(nil)

// Lazy is a handle returned before the store has finished loading. Each call
// waits for the load (or for its own context) and then forwards to the Store.
type Lazy struct {
	done  chan struct{}
	store *Store
	err   error
}

// OpenAsync starts loading a Store from p in the background and returns at once.
// ctx bounds the load itself.
func OpenAsync(ctx context.Context, p storage.Provider, opts ...Option) *Lazy {
	l := &Lazy{done: make(chan struct{})}
	go func() {
		defer close(l.done)
		l.store, l.err = New(ctx, p, opts...)
	}()
	return l
}

// Ready reports whether the load has finished, successfully or not.
func (l *Lazy) Ready() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the store is loaded and returns it, or the load error.
func (l *Lazy) Wait(ctx context.Context) (*Store, error) {
	select {
	case <-l.done:
		return l.store, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Lazy) ListSpecies(ctx context.Context) ([]domain.Species, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListSpecies(ctx)
}

func (l *Lazy) SaveSpecies(ctx context.Context, batch []domain.Species) ([]domain.Species, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.SaveSpecies(ctx, batch)
}

func (l *Lazy) IsSpeciesDeletable(ctx context.Context, sp domain.Species) (bool, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return false, err
	}
	return s.IsSpeciesDeletable(ctx, sp)
}

func (l *Lazy) DeleteSpecies(ctx context.Context, batch []domain.Species) error {
	s, err := l.Wait(ctx)
	if err != nil {
		return err
	}
	return s.DeleteSpecies(ctx, batch)
}

func (l *Lazy) ListSpecimens(ctx context.Context) ([]domain.Specimen, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListSpecimens(ctx)
}

func (l *Lazy) SaveSpecimens(ctx context.Context, batch []domain.Specimen) ([]domain.Specimen, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.SaveSpecimens(ctx, batch)
}

func (l *Lazy) DeleteSpecimens(ctx context.Context, batch []domain.Specimen) error {
	s, err := l.Wait(ctx)
	if err != nil {
		return err
	}
	return s.DeleteSpecimens(ctx, batch)
}

func (l *Lazy) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListTrips(ctx)
}

func (l *Lazy) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return domain.Trip{}, err
	}
	return s.GetTrip(ctx, id)
}

func (l *Lazy) SaveTrip(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return domain.Trip{}, err
	}
	return s.SaveTrip(ctx, t)
}

func (l *Lazy) DeleteTrip(ctx context.Context, t domain.Trip) error {
	s, err := l.Wait(ctx)
	if err != nil {
		return err
	}
	return s.DeleteTrip(ctx, t)
}

func (l *Lazy) AutoComplete(ctx context.Context, field domain.CompletionField) ([]string, error) {
	s, err := l.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.AutoComplete(ctx, field)
}

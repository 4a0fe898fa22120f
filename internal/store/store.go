// Package store holds the normalized in-memory graph of species, trips and
// their specimens, enforces referential integrity across them and rewrites
// only the documents whose content changed.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fishlog/internal/codec"
	"fishlog/internal/logging"
	"fishlog/internal/storage"
	"fishlog/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store is the data access object. Specimens live inside their trips; the
// global specimen view is derived by flattening trips. A mutex serialises
// every call, so at most one operation touches the maps at a time.
type Store struct {
	provider storage.Provider
	logger   logging.Logger

	mu      sync.Mutex
	species map[string]domain.Species
	trips   map[string]domain.Trip
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNoop(l) }
}

// New loads species, then specimens, then trips from p. All three readers are
// opened before the first one is consumed so a remote provider can fetch the
// documents concurrently.
func New(ctx context.Context, p storage.Provider, opts ...Option) (*Store, error) {
	s := &Store{
		provider: p,
		logger:   logging.Noop(),
		species:  make(map[string]domain.Species),
		trips:    make(map[string]domain.Trip),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	speciesCodec := codec.SpeciesCodec{}
	specimenCodec := codec.SpecimenCodec{}
	tripCodec := codec.TripCodec{Logger: s.logger}

	speciesReader := codec.Open(ctx, s.provider, speciesCodec.Resource())
	specimenReader := codec.Open(ctx, s.provider, specimenCodec.Resource())
	tripReader := codec.Open(ctx, s.provider, tripCodec.Resource())
	defer func() {
		_ = speciesReader.Close()
		_ = specimenReader.Close()
		_ = tripReader.Close()
	}()

	species, err := codec.Load(speciesReader, speciesCodec)
	if err != nil {
		return err
	}
	for _, sp := range species {
		s.species[sp.ID] = sp
	}

	specimenCodec.Species = codec.MapLookup(s.species)
	specimens, err := codec.Load(specimenReader, specimenCodec)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.Specimen, len(specimens))
	for _, sp := range specimens {
		byID[sp.ID] = sp
	}

	tripCodec.Specimens = codec.MapLookup(byID)
	trips, err := codec.Load(tripReader, tripCodec)
	if err != nil {
		return err
	}
	owned := 0
	for _, t := range trips {
		s.trips[t.ID] = t
		owned += len(t.SpecimenIDs())
	}
	if orphans := len(byID) - owned; orphans > 0 {
		s.logger.Warn("specimens without trip ignored", "count", orphans)
	}
	s.logger.Info("store loaded", "species", len(s.species), "trips", len(s.trips), "specimens", owned)
	return nil
}

// specimens flattens every trip's specimens.
func specimensOf(trips map[string]domain.Trip) []domain.Specimen {
	var out []domain.Specimen
	for _, t := range trips {
		out = append(out, t.Specimens()...)
	}
	return out
}

func sortedSpecies(m map[string]domain.Species) []domain.Species {
	out := make([]domain.Species, 0, len(m))
	for _, sp := range m {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return domain.LessFold(out[i].Name, out[j].Name)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedTrips(m map[string]domain.Trip) []domain.Trip {
	out := make([]domain.Trip, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		if a.Description != b.Description {
			return domain.LessFold(a.Description, b.Description)
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Store) writeSpecies(ctx context.Context, m map[string]domain.Species) error {
	c := codec.SpeciesCodec{}
	if err := codec.Write(ctx, s.provider, c, sortedSpecies(m)); err != nil {
		return err
	}
	s.logger.Debug("document rewritten", "resource", c.Resource(), "entries", len(m))
	return nil
}

func (s *Store) writeSpecimens(ctx context.Context, trips map[string]domain.Trip) error {
	c := codec.SpecimenCodec{}
	items := domain.SortByInstant(specimensOf(trips))
	if err := codec.Write(ctx, s.provider, c, items); err != nil {
		return err
	}
	s.logger.Debug("document rewritten", "resource", c.Resource(), "entries", len(items))
	return nil
}

func (s *Store) writeTrips(ctx context.Context, trips map[string]domain.Trip) error {
	c := codec.TripCodec{}
	if err := codec.Write(ctx, s.provider, c, sortedTrips(trips)); err != nil {
		return err
	}
	s.logger.Debug("document rewritten", "resource", c.Resource(), "entries", len(trips))
	return nil
}

func cloneSpecies(m map[string]domain.Species) map[string]domain.Species {
	out := make(map[string]domain.Species, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneTrips(m map[string]domain.Trip) map[string]domain.Trip {
	out := make(map[string]domain.Trip, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// resolveSpecimen validates sp and re-points it at the stored species value.
func (s *Store) resolveSpecimen(op string, sp domain.Specimen) (domain.Specimen, error) {
	if err := sp.Validate(); err != nil {
		return sp, err
	}
	species, ok := s.species[sp.Species.ID]
	if sp.Species.ID == "" || !ok {
		return sp, domain.PreconditionError{Op: op, Reason: "specimen references unknown species", IDs: []string{sp.ID}}
	}
	return sp.WithSpecies(species), nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

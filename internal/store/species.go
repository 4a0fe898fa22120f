package store

import (
	"context"

	"fishlog/pkg/domain"
)

// ListSpecies returns every species ordered by name, ignoring case.
func (s *Store) ListSpecies(ctx context.Context) ([]domain.Species, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedSpecies(s.species), nil
}

// SaveSpecies upserts batch and rewrites the species document. Specimens
// pointing at a replaced species are re-pointed to the new value and the
// specimens document is rewritten for them. An empty batch touches nothing.
func (s *Store) SaveSpecies(ctx context.Context, batch []domain.Species) ([]domain.Species, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range batch {
		if sp.ID == "" {
			return nil, domain.PreconditionError{Op: "save species", Reason: "species without id"}
		}
		if err := sp.Validate(); err != nil {
			return nil, err
		}
	}
	next := cloneSpecies(s.species)
	saved := make([]domain.Species, len(batch))
	for i, sp := range batch {
		saved[i] = sp.MarkPersisted()
		next[sp.ID] = saved[i]
	}
	if err := s.writeSpecies(ctx, next); err != nil {
		return nil, err
	}
	s.species = next

	var affected []domain.Specimen
	for _, sp := range specimensOf(s.trips) {
		if replaced, ok := next[sp.Species.ID]; ok && !sp.Species.Equal(replaced) {
			affected = append(affected, sp.WithSpecies(replaced))
		}
	}
	if len(affected) > 0 {
		if _, err := s.saveSpecimens(ctx, affected); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

// IsSpeciesDeletable reports whether no specimen references sp.
func (s *Store) IsSpeciesDeletable(ctx context.Context, sp domain.Species) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSpeciesDeletable(sp.ID), nil
}

func (s *Store) isSpeciesDeletable(id string) bool {
	for _, t := range s.trips {
		for _, sp := range t.Specimens() {
			if sp.Species.ID == id {
				return false
			}
		}
	}
	return true
}

// DeleteSpecies removes batch and rewrites the species document. The whole
// batch is rejected when any member is still referenced by a specimen.
func (s *Store) DeleteSpecies(ctx context.Context, batch []domain.Species) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var referenced []string
	for _, sp := range batch {
		if !s.isSpeciesDeletable(sp.ID) {
			referenced = append(referenced, sp.ID)
		}
	}
	if len(referenced) > 0 {
		return domain.PreconditionError{Op: "delete species", Reason: "species referenced by specimens", IDs: referenced}
	}
	next := cloneSpecies(s.species)
	removed := 0
	for _, sp := range batch {
		if _, ok := next[sp.ID]; ok {
			delete(next, sp.ID)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	if err := s.writeSpecies(ctx, next); err != nil {
		return err
	}
	s.species = next
	return nil
}

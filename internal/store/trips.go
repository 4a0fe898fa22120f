package store

import (
	"context"
	"slices"

	"fishlog/pkg/domain"
)

// ListTrips returns every trip, latest start date first, then by description.
func (s *Store) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedTrips(s.trips), nil
}

// GetTrip returns the trip with the given id.
func (s *Store) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	if err := ctxErr(ctx); err != nil {
		return domain.Trip{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return domain.Trip{}, domain.NotFoundError{Entity: domain.EntityTrip, ID: id}
	}
	return t, nil
}

// SaveTrip stores t with its specimens. The trips document is rewritten only
// when the trip is new or its own fields or specimen id list changed; the
// specimens document only when the trip is new or any of its specimens
// changed. Saving an unchanged trip writes nothing.
func (s *Store) SaveTrip(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	if err := ctxErr(ctx); err != nil {
		return domain.Trip{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		return domain.Trip{}, domain.PreconditionError{Op: "save trip", Reason: "trip without id"}
	}
	specimens := t.Specimens()
	var foreign []string
	for i, sp := range specimens {
		r, err := s.resolveSpecimen("save trip", sp)
		if err != nil {
			return domain.Trip{}, err
		}
		specimens[i] = r.MarkPersisted()
		if owner := s.ownerOf(sp.ID); owner != "" && owner != t.ID {
			foreign = append(foreign, sp.ID)
		}
	}
	if len(foreign) > 0 {
		return domain.Trip{}, domain.PreconditionError{Op: "save trip", Reason: "specimen owned by another trip", IDs: foreign}
	}
	candidate, err := t.MarkPersisted().WithSpecimens(specimens)
	if err != nil {
		return domain.Trip{}, err
	}

	old, exists := s.trips[t.ID]
	fieldsChanged := !exists || !old.SameFields(candidate) || !slices.Equal(old.SpecimenIDs(), candidate.SpecimenIDs())
	specimensChanged := !exists || !old.SameSpecimens(candidate)
	if !fieldsChanged && !specimensChanged {
		return old, nil
	}

	next := cloneTrips(s.trips)
	next[t.ID] = candidate
	if specimensChanged {
		if err := s.writeSpecimens(ctx, next); err != nil {
			return domain.Trip{}, err
		}
	}
	if fieldsChanged {
		if err := s.writeTrips(ctx, next); err != nil {
			return domain.Trip{}, err
		}
	}
	s.trips = next
	return candidate, nil
}

// ownerOf returns the id of the trip holding specimen id, or "".
func (s *Store) ownerOf(id string) string {
	for tripID, t := range s.trips {
		if slices.Contains(t.SpecimenIDs(), id) {
			return tripID
		}
	}
	return ""
}

// DeleteTrip removes t and its specimens. Deleting a trip that was never
// stored is a no-op. The specimens document is rewritten only when the trip
// had specimens.
func (s *Store) DeleteTrip(ctx context.Context, t domain.Trip) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.trips[t.ID]
	if !ok {
		return nil
	}
	next := cloneTrips(s.trips)
	delete(next, t.ID)
	if err := s.writeTrips(ctx, next); err != nil {
		return err
	}
	if len(old.SpecimenIDs()) > 0 {
		if err := s.writeSpecimens(ctx, next); err != nil {
			return err
		}
	}
	s.trips = next
	return nil
}

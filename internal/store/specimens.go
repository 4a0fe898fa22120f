package store

import (
	"context"
	"sort"

	"fishlog/pkg/domain"
)

// ListSpecimens returns every specimen of every trip ordered by species name,
// then heaviest first.
func (s *Store) ListSpecimens(ctx context.Context) ([]domain.Specimen, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := specimensOf(s.trips)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Species.Name != b.Species.Name {
			return domain.LessFold(a.Species.Name, b.Species.Name)
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.ID < b.ID
	})
	return out, nil
}

// SaveSpecimens updates specimens already owned by a trip and rewrites the
// specimens document. Specimens unknown to their trip are ignored and come
// back unchanged; new specimens are added through SaveTrip. An empty batch
// touches nothing.
func (s *Store) SaveSpecimens(ctx context.Context, batch []domain.Specimen) ([]domain.Specimen, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSpecimens(ctx, batch)
}

func (s *Store) saveSpecimens(ctx context.Context, batch []domain.Specimen) ([]domain.Specimen, error) {
	resolved := make([]domain.Specimen, len(batch))
	byTrip := make(map[string]map[string]domain.Specimen)
	for i, sp := range batch {
		if _, ok := s.trips[sp.TripID]; !ok {
			return nil, domain.PreconditionError{Op: "save specimens", Reason: "specimen references unknown trip", IDs: []string{sp.ID}}
		}
		r, err := s.resolveSpecimen("save specimens", sp)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
		if byTrip[sp.TripID] == nil {
			byTrip[sp.TripID] = make(map[string]domain.Specimen)
		}
		byTrip[sp.TripID][sp.ID] = r.MarkPersisted()
	}

	next := cloneTrips(s.trips)
	matched := make(map[string]bool)
	for tripID, updates := range byTrip {
		t := next[tripID]
		specimens := t.Specimens()
		for i, sp := range specimens {
			if u, ok := updates[sp.ID]; ok {
				specimens[i] = u
				matched[sp.ID] = true
			}
		}
		updated, err := t.WithSpecimens(specimens)
		if err != nil {
			return nil, err
		}
		next[tripID] = updated
	}

	out := make([]domain.Specimen, len(resolved))
	for i, sp := range resolved {
		if matched[sp.ID] {
			out[i] = sp.MarkPersisted()
		} else {
			out[i] = batch[i]
		}
	}
	if len(matched) == 0 {
		s.logger.Debug("no stored specimen matched, nothing written", "batch", len(batch))
		return out, nil
	}
	if err := s.writeSpecimens(ctx, next); err != nil {
		return nil, err
	}
	s.trips = next
	return out, nil
}

// DeleteSpecimens removes batch from their trips and rewrites the specimens
// and trips documents. An empty batch touches nothing.
func (s *Store) DeleteSpecimens(ctx context.Context, batch []domain.Specimen) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]map[string]bool)
	for _, sp := range batch {
		if doomed[sp.TripID] == nil {
			doomed[sp.TripID] = make(map[string]bool)
		}
		doomed[sp.TripID][sp.ID] = true
	}
	next := cloneTrips(s.trips)
	removed := 0
	for tripID, ids := range doomed {
		t, ok := next[tripID]
		if !ok {
			continue
		}
		var keep []domain.Specimen
		for _, sp := range t.Specimens() {
			if ids[sp.ID] {
				removed++
				continue
			}
			keep = append(keep, sp)
		}
		updated, err := t.WithSpecimens(keep)
		if err != nil {
			return err
		}
		next[tripID] = updated
	}
	if removed == 0 {
		return nil
	}
	if err := s.writeSpecimens(ctx, next); err != nil {
		return err
	}
	if err := s.writeTrips(ctx, next); err != nil {
		return err
	}
	s.trips = next
	return nil
}

// AutoComplete returns the distinct non-empty values of field across all
// specimens, sorted ignoring case.
func (s *Store) AutoComplete(ctx context.Context, field domain.CompletionField) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if _, ok := field.Value(domain.Specimen{}); !ok {
		return nil, domain.PreconditionError{Op: "auto complete", Reason: "unsupported field " + string(field)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, sp := range specimensOf(s.trips) {
		v, _ := field.Value(sp)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return domain.LessFold(out[i], out[j]) })
	return out, nil
}

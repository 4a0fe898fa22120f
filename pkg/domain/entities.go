// Package domain defines the persistent entities of the fishing log and the
// error taxonomy shared by the store, codecs and storage backends.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the type of record stored in the log.
type EntityType string

// Supported entity type identifiers. Each one owns exactly one document.
const (
	// EntitySpecies identifies a species catalog record.
	EntitySpecies EntityType = "Specie"
	// EntitySpecimen identifies a caught specimen.
	EntitySpecimen EntityType = "Specimen"
	// EntityTrip identifies a fishing trip.
	EntityTrip EntityType = "Trip"
)

// ResourceName returns the storage key of the document holding all entities of type t.
func ResourceName(t EntityType) string {
	return string(t) + ".json"
}

// Entity carries identity and the persisted flag common to every record.
type Entity struct {
	ID        string
	Persisted bool
}

func newEntity() Entity {
	return Entity{ID: uuid.NewString()}
}

func persistedEntity(id string) Entity {
	return Entity{ID: id, Persisted: true}
}

// IsNew reports whether the entity has never been written.
func (e Entity) IsNew() bool { return !e.Persisted }

// Species is an entry of the species catalog.
type Species struct {
	Entity
	Name       string
	RegWeight  int
	FreshWater bool
}

// NoSpecies is the empty sentinel referenced by specimens that have not been
// assigned a species yet. It is never stored.
var NoSpecies = Species{}

// NewSpecies returns an unsaved species with a fresh id.
func NewSpecies() Species {
	return Species{Entity: newEntity()}
}

// SpeciesAsPersisted rebuilds a species loaded from storage.
func SpeciesAsPersisted(id string) Species {
	return Species{Entity: persistedEntity(id)}
}

// WithName returns a copy with the name replaced.
func (s Species) WithName(name string) Species {
	s.Name = name
	return s
}

// WithRegWeight returns a copy with the registered weight replaced.
func (s Species) WithRegWeight(w int) Species {
	s.RegWeight = w
	return s
}

// WithFreshWater returns a copy with the fresh-water flag replaced.
func (s Species) WithFreshWater(fresh bool) Species {
	s.FreshWater = fresh
	return s
}

// MarkPersisted returns a copy flagged as persisted.
func (s Species) MarkPersisted() Species {
	s.Persisted = true
	return s
}

// Equal compares identity, persisted flag and every field.
func (s Species) Equal(o Species) bool {
	return s == o
}

// Validate checks that the registered weight is not negative.
func (s Species) Validate() error {
	if s.RegWeight < 0 {
		return PreconditionError{Op: "validate species", Reason: "negative registered weight", IDs: []string{s.ID}}
	}
	return nil
}

// Specimen is a single fish caught during a trip.
type Specimen struct {
	Entity
	TripID   string
	Species  Species
	Weight   int
	Length   float64
	Location string
	Instant  time.Time
	Method   string
	Bait     string
	Weather  string
	Text     string
}

// NewSpecimen returns an unsaved specimen owned by tripID, referencing NoSpecies.
func NewSpecimen(tripID string) Specimen {
	return Specimen{Entity: newEntity(), TripID: tripID, Species: NoSpecies}
}

// SpecimenAsPersisted rebuilds a specimen loaded from storage.
func SpecimenAsPersisted(id, tripID string) Specimen {
	return Specimen{Entity: persistedEntity(id), TripID: tripID, Species: NoSpecies}
}

// WithSpecies returns a copy referencing sp.
func (s Specimen) WithSpecies(sp Species) Specimen { s.Species = sp; return s }

// WithWeight returns a copy with the weight in grams replaced.
func (s Specimen) WithWeight(w int) Specimen { s.Weight = w; return s }

// WithLength returns a copy with the length replaced.
func (s Specimen) WithLength(l float64) Specimen { s.Length = l; return s }

// WithLocation returns a copy with the location replaced.
func (s Specimen) WithLocation(v string) Specimen { s.Location = v; return s }

// WithInstant returns a copy caught at t, kept in UTC to the second.
func (s Specimen) WithInstant(t time.Time) Specimen {
	s.Instant = t.UTC().Truncate(time.Second)
	return s
}

// WithMethod returns a copy with the fishing method replaced.
func (s Specimen) WithMethod(v string) Specimen { s.Method = v; return s }

// WithBait returns a copy with the bait replaced.
func (s Specimen) WithBait(v string) Specimen { s.Bait = v; return s }

// WithWeather returns a copy with the weather note replaced.
func (s Specimen) WithWeather(v string) Specimen { s.Weather = v; return s }

// WithText returns a copy with the free text replaced.
func (s Specimen) WithText(v string) Specimen { s.Text = v; return s }

// MarkPersisted returns a copy flagged as persisted.
func (s Specimen) MarkPersisted() Specimen {
	s.Persisted = true
	return s
}

// Ratio is the specimen weight relative to its species' registered weight.
func (s Specimen) Ratio() float64 {
	if s.Species.RegWeight == 0 {
		return 0
	}
	return float64(s.Weight) / float64(s.Species.RegWeight)
}

// Equal compares identity, persisted flag and every field, species included.
func (s Specimen) Equal(o Specimen) bool {
	return s.Entity == o.Entity &&
		s.TripID == o.TripID &&
		s.Species.Equal(o.Species) &&
		s.Weight == o.Weight &&
		s.Length == o.Length &&
		s.Location == o.Location &&
		s.Instant.Equal(o.Instant) &&
		s.Method == o.Method &&
		s.Bait == o.Bait &&
		s.Weather == o.Weather &&
		s.Text == o.Text
}

// Validate checks the numeric ranges of a specimen.
func (s Specimen) Validate() error {
	if s.Weight < 0 {
		return PreconditionError{Op: "validate specimen", Reason: "negative weight", IDs: []string{s.ID}}
	}
	if s.Length < 0 {
		return PreconditionError{Op: "validate specimen", Reason: "negative length", IDs: []string{s.ID}}
	}
	return nil
}

// Trip is a fishing trip owning an ordered list of specimens.
type Trip struct {
	Entity
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Text        string

	specimens []Specimen
}

// NewTrip returns an unsaved trip with a fresh id.
func NewTrip() Trip {
	return Trip{Entity: newEntity()}
}

// TripAsPersisted rebuilds a trip loaded from storage.
func TripAsPersisted(id string) Trip {
	return Trip{Entity: persistedEntity(id)}
}

// WithDescription returns a copy with the description replaced.
func (t Trip) WithDescription(v string) Trip { t.Description = v; return t }

// WithStartDate returns a copy starting on the calendar date of d.
func (t Trip) WithStartDate(d time.Time) Trip { t.StartDate = Date(d); return t }

// WithEndDate returns a copy ending on the calendar date of d.
func (t Trip) WithEndDate(d time.Time) Trip { t.EndDate = Date(d); return t }

// WithText returns a copy with the free text replaced.
func (t Trip) WithText(v string) Trip { t.Text = v; return t }

// WithSpecimens returns a copy owning the given specimens, sorted by catch
// instant. Every specimen must already belong to this trip.
func (t Trip) WithSpecimens(specimens []Specimen) (Trip, error) {
	var foreign []string
	for _, s := range specimens {
		if s.TripID != t.ID {
			foreign = append(foreign, s.ID)
		}
	}
	if len(foreign) > 0 {
		return t, PreconditionError{Op: "assign specimens", Reason: "specimen belongs to another trip", IDs: foreign}
	}
	t.specimens = SortByInstant(specimens)
	return t, nil
}

// Specimens returns a copy of the trip's specimens in catch order.
func (t Trip) Specimens() []Specimen {
	out := make([]Specimen, len(t.specimens))
	copy(out, t.specimens)
	return out
}

// SpecimenIDs returns the specimen ids in catch order.
func (t Trip) SpecimenIDs() []string {
	ids := make([]string, len(t.specimens))
	for i, s := range t.specimens {
		ids[i] = s.ID
	}
	return ids
}

// MarkPersisted returns a copy flagged as persisted.
func (t Trip) MarkPersisted() Trip {
	t.Persisted = true
	return t
}

// SameFields compares the trip's own fields, ignoring its specimens.
func (t Trip) SameFields(o Trip) bool {
	return t.Entity == o.Entity &&
		t.Description == o.Description &&
		t.StartDate.Equal(o.StartDate) &&
		t.EndDate.Equal(o.EndDate) &&
		t.Text == o.Text
}

// SameSpecimens compares the specimen lists element by element.
func (t Trip) SameSpecimens(o Trip) bool {
	if len(t.specimens) != len(o.specimens) {
		return false
	}
	for i := range t.specimens {
		if !t.specimens[i].Equal(o.specimens[i]) {
			return false
		}
	}
	return true
}

// Equal compares fields and specimens.
func (t Trip) Equal(o Trip) bool {
	return t.SameFields(o) && t.SameSpecimens(o)
}

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortByInstant returns a copy of specimens ordered by catch instant, then id.
func SortByInstant(specimens []Specimen) []Specimen {
	out := make([]Specimen, len(specimens))
	copy(out, specimens)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Instant.Equal(out[j].Instant) {
			return out[i].Instant.Before(out[j].Instant)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LessFold orders strings case-insensitively, falling back to byte order.
func LessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

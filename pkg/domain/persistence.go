package domain

import "context"

// CompletionField names a free-text specimen field offered for auto-completion.
type CompletionField string

// Fields supported by PersistentStore.AutoComplete.
const (
	FieldLocation CompletionField = "location"
	FieldMethod   CompletionField = "method"
	FieldBait     CompletionField = "bait"
	FieldWeather  CompletionField = "weather"
)

// Value returns the field's value on s.
func (f CompletionField) Value(s Specimen) (string, bool) {
	switch f {
	case FieldLocation:
		return s.Location, true
	case FieldMethod:
		return s.Method, true
	case FieldBait:
		return s.Bait, true
	case FieldWeather:
		return s.Weather, true
	default:
		return "", false
	}
}

// PersistentStore is the data access surface used by higher layers. Every
// implementation keeps species, specimens and trips referentially consistent
// and rewrites only the documents whose data changed.
type PersistentStore interface {
	ListSpecies(ctx context.Context) ([]Species, error)
	SaveSpecies(ctx context.Context, batch []Species) ([]Species, error)
	IsSpeciesDeletable(ctx context.Context, s Species) (bool, error)
	DeleteSpecies(ctx context.Context, batch []Species) error

	ListSpecimens(ctx context.Context) ([]Specimen, error)
	SaveSpecimens(ctx context.Context, batch []Specimen) ([]Specimen, error)
	DeleteSpecimens(ctx context.Context, batch []Specimen) error

	ListTrips(ctx context.Context) ([]Trip, error)
	GetTrip(ctx context.Context, id string) (Trip, error)
	SaveTrip(ctx context.Context, t Trip) (Trip, error)
	DeleteTrip(ctx context.Context, t Trip) error

	AutoComplete(ctx context.Context, field CompletionField) ([]string, error)
}

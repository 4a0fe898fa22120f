package codec

import (
	"fmt"
	"time"

	"fishlog/internal/logging"
	"fishlog/pkg/domain"
)

// Wire formats for temporal fields.
const (
	DateLayout    = "2006-01-02"
	InstantLayout = "2006-01-02T15:04:05"
)

// FormatDate renders a calendar date, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date; "" yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatInstant renders a catch instant without zone, or "" for the zero time.
func FormatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(InstantLayout)
}

// ParseInstant parses a local date-time, also accepting RFC 3339 input.
func ParseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(InstantLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("instant %q: %w", s, err)
	}
	return t.UTC(), nil
}

// SpeciesCodec maps species to documents.
type SpeciesCodec struct{}

var _ Codec[domain.Species] = SpeciesCodec{}

func (SpeciesCodec) Resource() string { return domain.ResourceName(domain.EntitySpecies) }

func (SpeciesCodec) Encode(s domain.Species) Document {
	return Document{
		{Key: "id", Value: s.ID},
		{Key: "name", Value: s.Name},
		{Key: "regWeight", Value: s.RegWeight},
		{Key: "freshWater", Value: s.FreshWater},
	}
}

func (SpeciesCodec) Decode(d Document) (domain.Species, error) {
	id, err := d.String("id")
	if err != nil {
		return domain.Species{}, err
	}
	if id == "" {
		return domain.Species{}, fmt.Errorf("species without id")
	}
	name, err := d.String("name")
	if err != nil {
		return domain.Species{}, err
	}
	weight, err := d.Int("regWeight")
	if err != nil {
		return domain.Species{}, err
	}
	fresh, err := d.Bool("freshWater")
	if err != nil {
		return domain.Species{}, err
	}
	return domain.SpeciesAsPersisted(id).WithName(name).WithRegWeight(weight).WithFreshWater(fresh), nil
}

// SpecimenCodec maps specimens to documents. The species is stored by id and
// resolved through Species, which must be fully populated before decoding.
type SpecimenCodec struct {
	Species Lookup[domain.Species]
}

var _ Codec[domain.Specimen] = SpecimenCodec{}

func (SpecimenCodec) Resource() string { return domain.ResourceName(domain.EntitySpecimen) }

func (SpecimenCodec) Encode(s domain.Specimen) Document {
	return Document{
		{Key: "id", Value: s.ID},
		{Key: "trip", Value: s.TripID},
		{Key: "specie", Value: s.Species.ID},
		{Key: "weight", Value: s.Weight},
		{Key: "length", Value: s.Length},
		{Key: "location", Value: s.Location},
		{Key: "instant", Value: FormatInstant(s.Instant)},
		{Key: "method", Value: s.Method},
		{Key: "bait", Value: s.Bait},
		{Key: "weather", Value: s.Weather},
		{Key: "text", Value: s.Text},
	}
}

func (c SpecimenCodec) Decode(d Document) (domain.Specimen, error) {
	var (
		s   domain.Specimen
		err error
	)
	str := func(key string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = d.String(key)
		return v
	}
	id, tripID, speciesID := str("id"), str("trip"), str("specie")
	location, instant := str("location"), str("instant")
	method, bait, weather, text := str("method"), str("bait"), str("weather"), str("text")
	if err != nil {
		return s, err
	}
	if id == "" {
		return s, fmt.Errorf("specimen without id")
	}
	weight, err := d.Int("weight")
	if err != nil {
		return s, err
	}
	length, err := d.Float("length")
	if err != nil {
		return s, err
	}
	at, err := ParseInstant(instant)
	if err != nil {
		return s, err
	}
	if c.Species == nil {
		return s, fmt.Errorf("specimen %s: no species lookup", id)
	}
	species, ok := c.Species(speciesID)
	if !ok {
		return s, fmt.Errorf("specimen %s: unknown species %q", id, speciesID)
	}
	s = domain.SpecimenAsPersisted(id, tripID).
		WithSpecies(species).
		WithWeight(weight).
		WithLength(length).
		WithLocation(location).
		WithInstant(at).
		WithMethod(method).
		WithBait(bait).
		WithWeather(weather).
		WithText(text)
	return s, nil
}

// TripCodec maps trips to documents. Specimens are stored as an ordered id
// list and resolved through Specimens, which must be fully populated before
// decoding. Ids that no longer resolve are dropped.
type TripCodec struct {
	Specimens Lookup[domain.Specimen]
	Logger    logging.Logger
}

var _ Codec[domain.Trip] = TripCodec{}

func (TripCodec) Resource() string { return domain.ResourceName(domain.EntityTrip) }

func (TripCodec) Encode(t domain.Trip) Document {
	return Document{
		{Key: "id", Value: t.ID},
		{Key: "description", Value: t.Description},
		{Key: "startDate", Value: FormatDate(t.StartDate)},
		{Key: "endDate", Value: FormatDate(t.EndDate)},
		{Key: "text", Value: t.Text},
		{Key: "specimens", Value: t.SpecimenIDs()},
	}
}

func (c TripCodec) Decode(d Document) (domain.Trip, error) {
	id, err := d.String("id")
	if err != nil {
		return domain.Trip{}, err
	}
	if id == "" {
		return domain.Trip{}, fmt.Errorf("trip without id")
	}
	description, err := d.String("description")
	if err != nil {
		return domain.Trip{}, err
	}
	text, err := d.String("text")
	if err != nil {
		return domain.Trip{}, err
	}
	rawStart, err := d.String("startDate")
	if err != nil {
		return domain.Trip{}, err
	}
	start, err := ParseDate(rawStart)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s start date: %w", id, err)
	}
	rawEnd, err := d.String("endDate")
	if err != nil {
		return domain.Trip{}, err
	}
	end, err := ParseDate(rawEnd)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s end date: %w", id, err)
	}
	ids, err := d.Strings("specimens")
	if err != nil {
		return domain.Trip{}, err
	}
	if c.Specimens == nil && len(ids) > 0 {
		return domain.Trip{}, fmt.Errorf("trip %s: no specimen lookup", id)
	}
	specimens := make([]domain.Specimen, 0, len(ids))
	for _, sid := range ids {
		s, ok := c.Specimens(sid)
		if !ok {
			logging.OrNoop(c.Logger).Warn("dropping unresolved specimen reference", "trip", id, "specimen", sid)
			continue
		}
		specimens = append(specimens, s)
	}
	t := domain.TripAsPersisted(id).
		WithDescription(description).
		WithStartDate(start).
		WithEndDate(end).
		WithText(text)
	return t.WithSpecimens(specimens)
}

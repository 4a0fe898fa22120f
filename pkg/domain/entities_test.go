package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntitiesAreUnpersistedWithUniqueIDs(t *testing.T) {
	a, b := NewSpecies(), NewSpecies()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsNew())
	assert.False(t, a.MarkPersisted().IsNew())
	assert.True(t, a.IsNew(), "MarkPersisted must not modify the receiver")

	sp := NewSpecimen("trip-1")
	assert.Equal(t, "trip-1", sp.TripID)
	assert.True(t, sp.Species.Equal(NoSpecies))
	assert.True(t, NewTrip().IsNew())
	assert.False(t, TripAsPersisted("t").IsNew())
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "Specie.json", ResourceName(EntitySpecies))
	assert.Equal(t, "Specimen.json", ResourceName(EntitySpecimen))
	assert.Equal(t, "Trip.json", ResourceName(EntityTrip))
}

func TestSpeciesEqualityIncludesPersistedFlag(t *testing.T) {
	s := SpeciesAsPersisted("id").WithName("Bream").WithRegWeight(4400)
	assert.True(t, s.Equal(SpeciesAsPersisted("id").WithName("Bream").WithRegWeight(4400)))
	unsaved := s
	unsaved.Persisted = false
	assert.False(t, s.Equal(unsaved))
	assert.False(t, s.Equal(s.WithFreshWater(true)))
}

func TestSpecimenRatioAndValidation(t *testing.T) {
	bream := SpeciesAsPersisted("b").WithName("Bream").WithRegWeight(4400)
	sp := NewSpecimen("t").WithSpecies(bream).WithWeight(5120)
	assert.InDelta(t, 1.1636, sp.Ratio(), 0.0001)
	assert.Zero(t, NewSpecimen("t").WithWeight(10).Ratio())

	require.NoError(t, sp.Validate())
	err := sp.WithWeight(-1).Validate()
	assert.ErrorIs(t, err, ErrPrecondition)
	err = sp.WithLength(-0.5).Validate()
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestSpecimenInstantIsNormalised(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	sp := NewSpecimen("t").WithInstant(time.Date(2024, 5, 18, 8, 30, 15, 999, loc))
	assert.Equal(t, time.UTC, sp.Instant.Location())
	assert.True(t, sp.Instant.Equal(time.Date(2024, 5, 18, 6, 30, 15, 0, time.UTC)), "got %v", sp.Instant)
}

func TestTripWithSpecimensSortsAndChecksOwnership(t *testing.T) {
	trip := NewTrip()
	late := NewSpecimen(trip.ID).WithInstant(time.Date(2024, 5, 18, 9, 0, 0, 0, time.UTC))
	early := NewSpecimen(trip.ID).WithInstant(time.Date(2024, 5, 18, 6, 0, 0, 0, time.UTC))
	input := []Specimen{late, early}

	withFish, err := trip.WithSpecimens(input)
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID, late.ID}, withFish.SpecimenIDs())
	assert.Equal(t, late.ID, input[0].ID, "input slice must not be reordered")
	assert.Empty(t, trip.SpecimenIDs(), "receiver keeps its specimens")

	foreign := NewSpecimen("other-trip")
	_, err = trip.WithSpecimens([]Specimen{early, foreign})
	var pe PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{foreign.ID}, pe.IDs)
}

func TestTripSpecimensReturnsCopy(t *testing.T) {
	trip := NewTrip()
	withFish, err := trip.WithSpecimens([]Specimen{NewSpecimen(trip.ID).WithWeight(1)})
	require.NoError(t, err)
	got := withFish.Specimens()
	got[0] = got[0].WithWeight(999)
	assert.Equal(t, 1, withFish.Specimens()[0].Weight)
}

func TestTripComparisons(t *testing.T) {
	start := time.Date(2024, 5, 18, 15, 0, 0, 0, time.UTC)
	trip := TripAsPersisted("t").WithDescription("Spring").WithStartDate(start)
	same := TripAsPersisted("t").WithDescription("Spring").WithStartDate(start.Add(2 * time.Hour))
	assert.True(t, trip.SameFields(same), "dates compare by calendar day")
	assert.False(t, trip.SameFields(same.WithText("note")))

	fish := SpecimenAsPersisted("f", "t").WithWeight(10)
	a, _ := trip.WithSpecimens([]Specimen{fish})
	b, _ := trip.WithSpecimens([]Specimen{fish.WithWeight(11)})
	assert.True(t, a.SameFields(b))
	assert.False(t, a.SameSpecimens(b))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
}

func TestSortByInstantBreaksTiesByID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := SpecimenAsPersisted("b", "t").WithInstant(at)
	a := SpecimenAsPersisted("a", "t").WithInstant(at)
	c := SpecimenAsPersisted("c", "t").WithInstant(at.Add(-time.Minute))
	sorted := SortByInstant([]Specimen{b, a, c})
	assert.Equal(t, "c", sorted[0].ID)
	assert.Equal(t, "a", sorted[1].ID)
	assert.Equal(t, "b", sorted[2].ID)
}

func TestLessFold(t *testing.T) {
	assert.True(t, LessFold("bream", "Carp"))
	assert.False(t, LessFold("Carp", "bream"))
	assert.True(t, LessFold("Bream", "bream"))
}

func TestCompletionFieldValue(t *testing.T) {
	sp := NewSpecimen("t").WithLocation("Lake").WithMethod("feeder").WithBait("maggot").WithWeather("sun")
	for field, want := range map[CompletionField]string{
		FieldLocation: "Lake", FieldMethod: "feeder", FieldBait: "maggot", FieldWeather: "sun",
	} {
		got, ok := field.Value(sp)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := CompletionField("colour").Value(sp)
	assert.False(t, ok)
}

func TestErrorTaxonomy(t *testing.T) {
	pe := PreconditionError{Op: "delete species", Reason: "referenced", IDs: []string{"a", "b"}}
	assert.Equal(t, "delete species: referenced: a, b", pe.Error())
	assert.ErrorIs(t, pe, ErrPrecondition)
	assert.NotErrorIs(t, pe, ErrNotFound)

	nf := NotFoundError{Entity: EntityTrip, ID: "x"}
	assert.Equal(t, "Trip x not found", nf.Error())
	assert.ErrorIs(t, nf, ErrNotFound)

	cause := errors.New("disk")
	se := StorageError{Op: "write", Resource: "Trip.json", Err: cause}
	assert.ErrorIs(t, se, ErrStorage)
	assert.ErrorIs(t, se, cause)
}

func TestSpeciesValidate(t *testing.T) {
	assert.NoError(t, NewSpecies().WithRegWeight(0).Validate())
	err := NewSpecies().WithRegWeight(-1).Validate()
	assert.ErrorIs(t, err, ErrPrecondition)
}

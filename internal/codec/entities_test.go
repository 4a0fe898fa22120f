package codec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishlog/internal/infra/storage/memory"
	"fishlog/pkg/domain"
)

var bream = domain.SpeciesAsPersisted("sp-bream").WithName("Bream").WithRegWeight(4400).WithFreshWater(true)

func TestSpeciesCodecRoundTrip(t *testing.T) {
	c := SpeciesCodec{}
	assert.Equal(t, "Specie.json", c.Resource())
	doc := c.Encode(bream)
	assert.Equal(t, []string{"id", "name", "regWeight", "freshWater"}, doc.Keys())

	back, err := c.Decode(reparse(t, doc))
	require.NoError(t, err)
	assert.True(t, bream.Equal(back))

	_, err = c.Decode(Document{{Key: "name", Value: "x"}})
	assert.Error(t, err, "missing id")
}

func TestSpecimenCodecResolvesSpecies(t *testing.T) {
	at := time.Date(2024, 5, 18, 6, 30, 0, 0, time.UTC)
	sp := domain.SpecimenAsPersisted("fish-1", "trip-1").
		WithSpecies(bream).WithWeight(5120).WithLength(51.5).
		WithLocation("Lake").WithInstant(at).WithMethod("feeder").
		WithBait("maggot").WithWeather("cloudy").WithText("first of the day")
	c := SpecimenCodec{Species: MapLookup(map[string]domain.Species{bream.ID: bream})}

	doc := c.Encode(sp)
	assert.Equal(t, []string{"id", "trip", "specie", "weight", "length", "location", "instant", "method", "bait", "weather", "text"}, doc.Keys())
	v, _ := doc.Get("instant")
	assert.Equal(t, "2024-05-18T06:30:00", v)
	v, _ = doc.Get("specie")
	assert.Equal(t, bream.ID, v)

	back, err := c.Decode(reparse(t, doc))
	require.NoError(t, err)
	assert.True(t, sp.Equal(back))

	unknown := SpecimenCodec{Species: MapLookup(map[string]domain.Species{})}
	_, err = unknown.Decode(reparse(t, doc))
	assert.ErrorContains(t, err, "unknown species")
}

func TestTripCodecDropsUnresolvedSpecimens(t *testing.T) {
	trip := domain.TripAsPersisted("trip-1").
		WithDescription("Spring").
		WithStartDate(time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC)).
		WithEndDate(time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC)).
		WithText("windy")
	early := domain.SpecimenAsPersisted("a", trip.ID).WithSpecies(bream).WithInstant(time.Date(2024, 5, 18, 6, 0, 0, 0, time.UTC))
	late := domain.SpecimenAsPersisted("b", trip.ID).WithSpecies(bream).WithInstant(time.Date(2024, 5, 18, 9, 0, 0, 0, time.UTC))
	trip, err := trip.WithSpecimens([]domain.Specimen{late, early})
	require.NoError(t, err)

	c := TripCodec{Specimens: MapLookup(map[string]domain.Specimen{"a": early, "b": late})}
	doc := c.Encode(trip)
	v, _ := doc.Get("specimens")
	assert.Equal(t, []string{"a", "b"}, v)
	v, _ = doc.Get("startDate")
	assert.Equal(t, "2024-05-18", v)

	back, err := c.Decode(reparse(t, doc))
	require.NoError(t, err)
	assert.True(t, trip.Equal(back))

	partial := TripCodec{Specimens: MapLookup(map[string]domain.Specimen{"b": late})}
	back, err = partial.Decode(reparse(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, back.SpecimenIDs())
}

func TestWriteAndLoadThroughProvider(t *testing.T) {
	p := memory.New()
	ctx := context.Background()
	other := domain.SpeciesAsPersisted("sp-carp").WithName("carp").WithRegWeight(9000)
	require.NoError(t, Write(ctx, p, SpeciesCodec{}, []domain.Species{bream, other}))

	content, ok := p.Content("Specie.json")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(content), "[\n  {\n    \"id\": \"sp-bream\""))

	loaded, err := Load(Open(ctx, p, "Specie.json"), SpeciesCodec{})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].Equal(bream))
	assert.True(t, loaded[1].Equal(other))

	empty, err := Load(Open(ctx, p, "Trip.json"), TripCodec{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

type brokenProvider struct{ err error }

func (b brokenProvider) Input(context.Context, string) (io.ReadCloser, error)  { return nil, b.err }
func (b brokenProvider) Output(context.Context, string) (io.WriteCloser, error) { return nil, b.err }

func TestStorageFailuresAreWrapped(t *testing.T) {
	boom := errors.New("disk gone")
	ctx := context.Background()

	err := Write(ctx, brokenProvider{err: boom}, SpeciesCodec{}, []domain.Species{bream})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, boom)

	_, err = Load(Open(ctx, brokenProvider{err: boom}, "Specie.json"), SpeciesCodec{})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, boom)
}

func TestLoadRejectsCorruptDocument(t *testing.T) {
	p := memory.New()
	p.Seed("Specie.json", []byte(`[{"id":"x","regWeight":"heavy"}]`))
	_, err := Load(Open(context.Background(), p, "Specie.json"), SpeciesCodec{})
	assert.Error(t, err)
}

func reparse(t *testing.T, doc Document) Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, EncodeDocuments(&buf, []Document{doc}))
	docs, err := DecodeDocuments(&buf)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return docs[0]
}

package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKeepsFieldOrder(t *testing.T) {
	doc := Document{}.Set("z", 1).Set("a", "x").Set("m", true).Set("z", 2)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"z":2,"a":"x","m":true}`, string(b))

	var back Document
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"z", "a", "m"}, back.Keys())
}

func TestDocumentAccessors(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"s":"v","i":42,"f":1.5,"b":true,"l":["a","b"],"n":null}`), &doc))

	s, err := doc.String("s")
	require.NoError(t, err)
	assert.Equal(t, "v", s)
	i, err := doc.Int("i")
	require.NoError(t, err)
	assert.Equal(t, 42, i)
	f, err := doc.Float("f")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	bv, err := doc.Bool("b")
	require.NoError(t, err)
	assert.True(t, bv)
	l, err := doc.Strings("l")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l)

	absent, err := doc.String("missing")
	require.NoError(t, err)
	assert.Empty(t, absent)
	null, err := doc.String("n")
	require.NoError(t, err)
	assert.Empty(t, null)

	_, err = doc.Int("s")
	assert.Error(t, err)
	_, err = doc.String("i")
	assert.Error(t, err)
	_, err = doc.Bool("s")
	assert.Error(t, err)
	_, err = doc.Strings("s")
	assert.Error(t, err)
}

func TestEncodeDocumentsIsPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeDocuments(&buf, []Document{{{Key: "id", Value: "a"}}}))
	assert.Equal(t, "[\n  {\n    \"id\": \"a\"\n  }\n]\n", buf.String())

	buf.Reset()
	require.NoError(t, EncodeDocuments(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestDecodeDocuments(t *testing.T) {
	docs, err := DecodeDocuments(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Nil(t, docs)

	docs, err = DecodeDocuments(strings.NewReader(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	_, err = DecodeDocuments(strings.NewReader(`{"id":"a"}`))
	assert.Error(t, err)
	_, err = DecodeDocuments(strings.NewReader(`[1]`))
	assert.Error(t, err)
}

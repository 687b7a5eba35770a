package openapi

import (
	"errors"
	"slices"
	"testing"

	"github.com/erraggy/oastools/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(m *Map) []string {
	return slices.Collect(m.Keys())
}

func TestParseJSONKeepsDeclarationOrder(t *testing.T) {
	doc, err := Parse([]byte(`{
		"openapi": "3.0.3",
		"paths": {"/b": {}, "/a": {}, "/c": {}},
		"info": {"title": "T", "version": "1", "x-count": 3, "x-ratio": 0.5, "x-flag": true, "x-null": null}
	}`), "inline.json")
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, doc.Format())
	assert.Equal(t, "inline.json", doc.Source())
	assert.Equal(t, []string{"openapi", "paths", "info"}, keys(doc.Root()))
	assert.Equal(t, []string{"/b", "/a", "/c"}, keys(doc.Paths()))

	info := doc.Info()
	require.NotNil(t, info)
	count, _ := info.Get("x-count")
	assert.Equal(t, int64(3), count)
	ratio, _ := info.Get("x-ratio")
	assert.Equal(t, 0.5, ratio)
	assert.True(t, BoolValue(info, "x-flag"))
	null, ok := info.Get("x-null")
	assert.True(t, ok)
	assert.Nil(t, null)
}

func TestParseFallsBackToYAML(t *testing.T) {
	doc, err := Parse([]byte(`
openapi: 3.0.3
info:
  title: Pets
  version: "1.0"
servers:
  - url: https://api.example.com/v1
  - url: https://staging.example.com/v1
components:
  schemas:
    Zebra: {type: object}
    Apple: {type: object}
`), "pets.yaml")
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, doc.Format())
	assert.Equal(t, "3.0.3", doc.Version())
	assert.Equal(t, "Pets", StringValue(doc.Info(), "title"))
	assert.Equal(t, []string{"https://api.example.com/v1", "https://staging.example.com/v1"}, doc.Servers())
	assert.Equal(t, []string{"Zebra", "Apple"}, keys(MapValue(doc.Components(), "schemas")))
}

func TestParseYAMLAnchorsAndMerge(t *testing.T) {
	doc, err := Parse([]byte(`
openapi: 3.0.3
x-base: &base
  type: object
  description: shared
components:
  schemas:
    A: *base
    B:
      <<: *base
      description: own
`), "anchors.yaml")
	require.NoError(t, err)

	schemas := MapValue(doc.Components(), "schemas")
	a := MapValue(schemas, "A")
	assert.Equal(t, "object", StringValue(a, "type"))

	b := MapValue(schemas, "B")
	assert.Equal(t, "object", StringValue(b, "type"))
	assert.Equal(t, "own", StringValue(b, "description"))
}

func TestParseDuplicateKeysKeepLastValue(t *testing.T) {
	doc, err := Parse([]byte(`{"openapi": "3.0.0", "a": 1, "openapi": "3.0.3"}`), "")
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.Version())
	assert.Equal(t, 2, doc.Root().Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"scalar root", `"just a string"`},
		{"list root", "- a\n- b\n"},
		{"broken yaml", "openapi: [3.0\n  info: {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "bad.yaml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, oaserrors.ErrParse))

			var pe *oaserrors.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "bad.yaml", pe.Path)
		})
	}
}

func TestAccessorsOnMissingKeys(t *testing.T) {
	doc := NewDocument(nil)

	assert.Nil(t, doc.Paths())
	assert.Nil(t, doc.Components())
	assert.Empty(t, doc.Servers())
	assert.Empty(t, StringValue(nil, "x"))
	assert.Nil(t, ListValue(doc.Root(), "x"))

	_, _, ok := FirstEntry(doc.Root())
	assert.False(t, ok)
}

package store

import (
	"encoding/json"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFields(t *testing.T) {
	fields := map[string]any{
		"body": "Kobe Bryant is in Munich.",
		"entities": map[string]any{
			"names":     []any{"Kobe Bryant"},
			"locations": []any{"Munich"},
		},
	}

	r, err := FromFields("doc-1", fields, "entities")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", r.ID)
	assert.Equal(t, []Entity{{Kind: "locations", Value: "Munich"}, {Kind: "names", Value: "Kobe Bryant"}}, r.Entities)

	var back map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &back))
	assert.Equal(t, "Kobe Bryant is in Munich.", back["body"])
}

func TestFromFieldsWithoutEntities(t *testing.T) {
	r, err := FromFields("doc-1", map[string]any{"body": "x"}, "entities")
	require.NoError(t, err)
	assert.Empty(t, r.Entities)

	_, err = FromFields("doc-1", map[string]any{"entities": 3}, "entities")
	assert.Error(t, err)
}

func TestFromFieldsSkipsEntriesThatAreNotLists(t *testing.T) {
	fields := map[string]any{"entities": map[string]any{"names": []any{"Kobe Bryant"}, "score": 3}}

	r, err := FromFields("doc-1", fields, "entities")
	require.NoError(t, err)
	assert.Equal(t, []Entity{{Kind: "names", Value: "Kobe Bryant"}}, r.Entities)
	assert.Contains(t, string(r.Body), `"score":3`)
}

func TestUniqueEntities(t *testing.T) {
	in := []Entity{
		{Kind: "names", Value: "A"},
		{Kind: "names", Value: "A"},
		{Kind: "dates", Value: "A"},
		{Kind: "", Value: "B"},
		{Kind: "names", Value: ""},
	}
	assert.Equal(t, []Entity{{Kind: "names", Value: "A"}, {Kind: "dates", Value: "A"}}, UniqueEntities(in))
}

func TestNewIDIsMonotonic(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		id := NewID()
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

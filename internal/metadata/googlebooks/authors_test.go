package googlebooks

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawAuthors_List(t *testing.T) {
	var a rawAuthors
	err := json.Unmarshal([]byte(`["Ursula K. Le Guin","China Miéville"]`), &a)
	require.NoError(t, err)
	assert.Equal(t, rawAuthors{"Ursula K. Le Guin", "China Miéville"}, a)
}

func TestRawAuthors_EmptyList(t *testing.T) {
	var a rawAuthors
	err := json.Unmarshal([]byte(`[]`), &a)
	require.NoError(t, err)
	assert.Empty(t, a)
}

func TestRawAuthors_BareString(t *testing.T) {
	var a rawAuthors
	err := json.Unmarshal([]byte(`"Octavia E. Butler"`), &a)
	require.NoError(t, err)
	assert.Equal(t, rawAuthors{"Octavia E. Butler"}, a)
}

func TestRawAuthors_EmptyString(t *testing.T) {
	var a rawAuthors
	err := json.Unmarshal([]byte(`""`), &a)
	require.NoError(t, err)
	assert.Nil(t, []string(a))
}

func TestRawAuthors_IndexedObject(t *testing.T) {
	// Sparse index-keyed shape: ordered by numeric key, gaps allowed.
	var a rawAuthors
	err := json.Unmarshal([]byte(`{"2":"Third","0":"First","10":"Last"}`), &a)
	require.NoError(t, err)
	assert.Equal(t, rawAuthors{"First", "Third", "Last"}, a)
}

func TestRawAuthors_IndexedObjectDropsNonNumericKeys(t *testing.T) {
	var a rawAuthors
	err := json.Unmarshal([]byte(`{"0":"Kept","note":"Dropped"}`), &a)
	require.NoError(t, err)
	assert.Equal(t, rawAuthors{"Kept"}, a)
}

func TestRawAuthors_UnsupportedShape(t *testing.T) {
	var a rawAuthors
	err := json.Unmarshal([]byte(`42`), &a)
	assert.Error(t, err)
}

package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/ashureev/time-agent/internal/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogIsValid(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	keys := c.Keys()
	require.Len(t, keys, 4)
	assert.Equal(t, "Forerunners of Zionism and Hibbat Zion", keys[0])
	assert.Equal(t, "The Second Aliyah and Arab Nationalism", keys[3])

	for _, key := range keys {
		set, ok := c.Get(key)
		require.True(t, ok)
		assert.GreaterOrEqual(t, len(set.Puzzles), 7, key)
		assert.Equal(t, len(set.Puzzles), set.TotalRooms)

		seen := map[string]bool{}
		for _, p := range set.Puzzles {
			require.NoError(t, puzzle.Check(p))
			assert.False(t, seen[p.Question], "duplicate question in %s", key)
			seen[p.Question] = true
		}
	}
}

func TestLoadFSSkipsInvalidPuzzles(t *testing.T) {
	fsys := fstest.MapFS{
		"sets/a.json": {Data: []byte(`{
			"topic": "Test",
			"narrative": "n",
			"puzzles": [
				{"id": "1", "type": "CODE_ENTRY", "description": "d", "question": "q1", "explanation": "e", "correctCode": "x"},
				{"id": "2", "type": "CODE_ENTRY", "description": "d", "question": "q2", "explanation": "e"}
			]
		}`)},
		"sets/readme.txt": {Data: []byte("ignored")},
	}

	c, err := LoadFS(fsys, "sets")
	require.NoError(t, err)
	set, ok := c.Get("Test")
	require.True(t, ok)
	require.Len(t, set.Puzzles, 1)
	assert.Equal(t, "q1", set.Puzzles[0].Question)
}

func TestLoadFSRejectsBadJSON(t *testing.T) {
	fsys := fstest.MapFS{"sets/a.json": {Data: []byte(`{`)}}
	_, err := LoadFS(fsys, "sets")
	assert.Error(t, err)
}

package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLoadDataFile_Failures(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := loadDataFile("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadDataFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))
		_, err := loadDataFile(p)
		assert.Error(t, err)
	})

	t.Run("no items", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"items":[],"recipes":[]}`), 0o644))
		_, err := loadDataFile(p)
		assert.Error(t, err)
	})
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	c := New(testLogger(), filepath.Join(t.TempDir(), "missing.json"))

	// The embedded table is usable: a known item resolves and recipes exist.
	it, ok := c.Item("T4_METALBAR")
	require.True(t, ok)
	assert.Equal(t, "Iron Bar", it.Name)
	assert.NotEmpty(t, c.AllRecipes())
}

func TestNew_LoadsDataFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.json")
	doc := `{
		"items": [{"id":"T4_FISH","name":"Rough Fish","category":"FISH","tier":4}],
		"recipes": [
			{"id":"r1","name":"Chopped Fish","outputItemId":"T4_FISH_CHOPPED","outputQuantity":1,
			 "ingredients":[{"itemId":"T4_FISH","quantity":2}]},
			{"id":"r2","name":"Broken","outputItemId":"T4_BROKEN","outputQuantity":0,"ingredients":[]}
		]
	}`
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	c := New(testLogger(), p)
	assert.Equal(t, "Rough Fish", c.ItemName("T4_FISH"))

	// The zero-output recipe was dropped on load.
	_, ok := c.Recipe("T4_BROKEN")
	assert.False(t, ok)
	assert.Len(t, c.AllRecipes(), 1)
}

func TestSearch(t *testing.T) {
	c := New(testLogger(), "")

	t.Run("matches id and name case-insensitively", func(t *testing.T) {
		byName := c.Search("iron")
		require.NotEmpty(t, byName)
		assert.Equal(t, "T4_ORE", byName[0].ID)

		byID := c.Search("metalbar")
		require.NotEmpty(t, byID)
		for _, it := range byID {
			assert.Contains(t, it.ID, "METALBAR")
		}
	})

	t.Run("short query returns nothing", func(t *testing.T) {
		assert.Nil(t, c.Search(""))
		assert.Nil(t, c.Search("t"))
		assert.Nil(t, c.Search("  x  "))
	})

	t.Run("result count is capped", func(t *testing.T) {
		all := c.Search("t4")
		assert.LessOrEqual(t, len(all), maxSearchResults)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		assert.Empty(t, c.Search("zzzznothing"))
	})
}

func TestItemName_UnknownFallsBackToID(t *testing.T) {
	c := New(testLogger(), "")
	assert.Equal(t, "T9_UNKNOWN", c.ItemName("T9_UNKNOWN"))
}

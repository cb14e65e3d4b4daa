package filter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoatlas/poifetch/internal/model"
)

func writeRaw(t *testing.T, dir, name string, elements []model.Element) {
	t.Helper()
	doc := model.AggregatedResult{
		Version:      model.OverpassVersion,
		Generator:    model.Generator,
		LocationType: "park",
		Region:       "northern_europe",
		FetchedAt:    time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Elements:     elements,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func newRepo(t *testing.T) (*Repo, string, string) {
	t.Helper()
	raw := t.TempDir()
	filtered := t.TempDir()
	repo, err := NewRepo(raw, filtered)
	require.NoError(t, err)
	return repo, raw, filtered
}

func TestApply_NamedOnly(t *testing.T) {
	repo, raw, filtered := newRepo(t)
	writeRaw(t, raw, "park_northern_europe_20260823.json", []model.Element{
		{Type: "node", ID: 1, Tags: map[string]string{"name": "Vigeland Park"}},
		{Type: "node", ID: 2},
		{Type: "way", ID: 3, Tags: map[string]string{"leisure": "park"}},
		{Type: "way", ID: 4, Tags: map[string]string{"name": "Slottsparken"}},
	})

	outName, doc, err := repo.Apply("park_northern_europe_20260823.json", NamedOnly)
	require.NoError(t, err)

	assert.Equal(t, "park_northern_europe_20260823_named_only.json", outName)
	assert.Equal(t, 4, doc.OriginalCount)
	assert.Equal(t, 2, doc.FilteredCount)
	assert.Equal(t, "Filtered Data", doc.Generator)
	assert.Equal(t, "park_northern_europe_20260823.json", doc.OriginalFile)

	// The written file round-trips to the same document.
	data, err := os.ReadFile(filepath.Join(filtered, outName))
	require.NoError(t, err)
	var got Document
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, NamedOnly, got.FilterType)
	require.Len(t, got.Elements, 2)
	assert.Equal(t, "Vigeland Park", got.Elements[0].Tags["name"])
	assert.Equal(t, "Slottsparken", got.Elements[1].Tags["name"])
}

func TestApply_UnnamedOnly(t *testing.T) {
	repo, raw, _ := newRepo(t)
	writeRaw(t, raw, "school_central_europe_20260823.json", []model.Element{
		{Type: "node", ID: 1, Tags: map[string]string{"name": "Gymnasium"}},
		{Type: "node", ID: 2},
		{Type: "node", ID: 3, Tags: map[string]string{"amenity": "school"}},
	})

	_, doc, err := repo.Apply("school_central_europe_20260823.json", UnnamedOnly)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.OriginalCount)
	assert.Equal(t, 2, doc.FilteredCount)
	for _, e := range doc.Elements {
		assert.False(t, e.HasName())
	}
}

func TestApply_MissingFile(t *testing.T) {
	repo, _, _ := newRepo(t)
	_, _, err := repo.Apply("absent.json", NamedOnly)
	assert.Error(t, err)
}

func TestApply_CorruptFile(t *testing.T) {
	repo, raw, _ := newRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(raw, "bad.json"), []byte("{nope"), 0o644))
	_, _, err := repo.Apply("bad.json", NamedOnly)
	assert.Error(t, err)
}

func TestListRawAndFiltered(t *testing.T) {
	repo, raw, filtered := newRepo(t)
	writeRaw(t, raw, "b.json", nil)
	writeRaw(t, raw, "a.json", nil)
	require.NoError(t, os.WriteFile(filepath.Join(raw, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(filtered, "sub.json"), 0o755))

	rawNames, err := repo.ListRaw()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, rawNames)

	filteredNames, err := repo.ListFiltered()
	require.NoError(t, err)
	assert.Empty(t, filteredNames, "directories and non-JSON files are ignored")
}

func TestCountObjects(t *testing.T) {
	repo, raw, _ := newRepo(t)
	writeRaw(t, raw, "park_a_20260823.json", []model.Element{
		{Type: "node", ID: 1}, {Type: "node", ID: 2},
	})
	writeRaw(t, raw, "park_b_20260823.json", []model.Element{
		{Type: "way", ID: 3},
	})
	require.NoError(t, os.WriteFile(filepath.Join(raw, "broken.json"), []byte("<html>"), 0o644))

	_, _, err := repo.Apply("park_a_20260823.json", NamedOnly)
	require.NoError(t, err)

	counts, err := repo.CountObjects()
	require.NoError(t, err)

	assert.Equal(t, 3, counts.Raw.Total)
	assert.Equal(t, 2, counts.Raw.Files["park_a_20260823.json"])
	assert.Equal(t, 0, counts.Raw.Files["broken.json"], "unparseable files count as zero")
	assert.Equal(t, 0, counts.Filtered.Total, "no named elements survived")
}

package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartus-community/de-catalog/internal/sources"
)

func testStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "catalog", "list.json")
	controllerPath := filepath.Join(dir, "controller.json")
	return NewStore(outputPath, controllerPath), outputPath, controllerPath
}

func TestPersistIfChangedFirstWrite(t *testing.T) {
	t.Parallel()

	store, outputPath, _ := testStore(t)
	doc := New([]sources.Item{{"name": "blinky"}}).Document()

	written, err := store.PersistIfChanged(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var persisted map[string]any
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, float64(1), persisted["num"])

	// Four-space indentation, human-diffable output
	assert.Contains(t, string(data), "\n    \"num\"")
}

func TestPersistIfChangedIdempotent(t *testing.T) {
	t.Parallel()

	store, outputPath, _ := testStore(t)
	doc := New([]sources.Item{{"name": "blinky", "descripción": "diseño"}}).Document()

	written, err := store.PersistIfChanged(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, written)

	first, err := os.Stat(outputPath)
	require.NoError(t, err)

	// Same content again: no rewrite performed
	written, err = store.PersistIfChanged(context.Background(), New([]sources.Item{
		{"name": "blinky", "descripción": "diseño"},
	}).Document())
	require.NoError(t, err)
	assert.False(t, written)

	second, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime())
}

func TestPersistIfChangedDetectsDifference(t *testing.T) {
	t.Parallel()

	store, _, _ := testStore(t)

	written, err := store.PersistIfChanged(context.Background(),
		New([]sources.Item{{"name": "blinky"}}).Document())
	require.NoError(t, err)
	require.True(t, written)

	written, err = store.PersistIfChanged(context.Background(),
		New([]sources.Item{{"name": "blinky"}, {"name": "uart"}}).Document())
	require.NoError(t, err)
	assert.True(t, written)
}

func TestPersistIfChangedPreservesNonASCII(t *testing.T) {
	t.Parallel()

	store, outputPath, _ := testStore(t)
	doc := New([]sources.Item{{"rich_description": "Nios® II — 研发示例 <img>"}}).Document()

	_, err := store.PersistIfChanged(context.Background(), doc)
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Nios® II — 研发示例 <img>")
	assert.NotContains(t, string(data), `\u`)
}

func TestLoadController(t *testing.T) {
	t.Parallel()

	store, _, controllerPath := testStore(t)

	// Absent controller is not an error
	override, found, err := store.LoadController()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, override)

	// Hand-maintained file may carry comments and trailing commas
	content := `{
		// force regeneration for the 24.1 release
		"force_regenerate": true,
		"num": 999,
	}`
	require.NoError(t, os.WriteFile(controllerPath, []byte(content), 0600))

	override, found, err = store.LoadController()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(999), override["num"])
	assert.Equal(t, true, override["force_regenerate"])
}

func TestLoadControllerMalformed(t *testing.T) {
	t.Parallel()

	store, _, controllerPath := testStore(t)
	require.NoError(t, os.WriteFile(controllerPath, []byte(`{"num": `), 0600))

	_, found, err := store.LoadController()
	assert.True(t, found)
	assert.Error(t, err)
}

func TestControllerOverridePrecedence(t *testing.T) {
	t.Parallel()

	store, outputPath, controllerPath := testStore(t)
	require.NoError(t, os.WriteFile(controllerPath, []byte(`{"num": 999}`), 0600))

	doc := New([]sources.Item{
		{"name": "a"}, {"name": "b"}, {"name": "c"}, {"name": "d"}, {"name": "e"},
	}).Document()

	override, found, err := store.LoadController()
	require.NoError(t, err)
	require.True(t, found)

	_, err = store.PersistIfChanged(context.Background(), MergeController(doc, override))
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var persisted map[string]any
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, float64(999), persisted["num"])
	assert.Len(t, persisted["designs"], 5)
}

func TestPersistIfChangedMalformedExisting(t *testing.T) {
	t.Parallel()

	store, outputPath, _ := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(outputPath), 0750))
	require.NoError(t, os.WriteFile(outputPath, []byte(`{broken`), 0600))

	_, err := store.PersistIfChanged(context.Background(),
		New([]sources.Item{{"name": "a"}}).Document())
	assert.Error(t, err)
}

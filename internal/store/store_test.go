package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/marches/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "donnees_marches.json"), filepath.Join(dir, "pages_non_traitees.json"))
}

func datasetOf(t *testing.T, records ...models.Record) *Dataset {
	t.Helper()
	d := &Dataset{}
	require.NoError(t, d.Append(records...))
	return d
}

func readEntries(t *testing.T, path string) []json.RawMessage {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal(content, &entries))
	return entries
}

func TestLoadDataset_Missing(t *testing.T) {
	s := newTestStore(t)

	dataset, err := s.LoadDataset()
	require.NoError(t, err)
	require.NotNil(t, dataset)
	assert.Zero(t, dataset.Len())
	assert.Empty(t, dataset.References())
}

func TestLoadDataset_EmptyFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.DatasetPath(), []byte("  \n"), 0o644))

	dataset, err := s.LoadDataset()
	require.NoError(t, err)
	assert.Zero(t, dataset.Len())
}

func TestLoadDataset_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `[{"reference": "A1",`},
		{"object at top level", `{"reference": "A1"}`},
		{"entry is not an object", `[{"reference": "A1"}, "A2"]`},
		{"numeric reference", `[{"reference": 12}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.DatasetPath(), []byte(tt.content), 0o644))

			_, err := s.LoadDataset()
			assert.ErrorIs(t, err, ErrCorruptDataset)
		})
	}
}

func TestLoadDataset_References(t *testing.T) {
	s := newTestStore(t)
	content := `[{"reference": "A1"}, {"reference": null}, {"objet": "sans reference"}, {"reference": ""}, {"reference": "B2"}]`
	require.NoError(t, os.WriteFile(s.DatasetPath(), []byte(content), 0o644))

	dataset, err := s.LoadDataset()
	require.NoError(t, err)
	assert.Equal(t, 5, dataset.Len())
	assert.Equal(t, []string{"A1", "B2"}, dataset.References())
}

func TestSaveDataset_KeepsExistingEntriesVerbatim(t *testing.T) {
	s := newTestStore(t)

	prior := `{"reference":"A1","objet":"Achat","acheteur":"Commune","date_publication":"07/03/2024","attribue":true,"entreprise_attributaire":null,"montant":"1 200,50","nested":{"lots":[1,2]}}`
	require.NoError(t, os.WriteFile(s.DatasetPath(), []byte("[\n"+prior+"\n]"), 0o644))

	dataset, err := s.LoadDataset()
	require.NoError(t, err)
	require.NoError(t, dataset.Append(models.Record{Reference: ptr("B2")}))
	require.NoError(t, s.SaveDataset(dataset))

	entries := readEntries(t, s.DatasetPath())
	require.Len(t, entries, 2)

	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, entries[0]))
	assert.Equal(t, prior, compact.String())
	assert.Contains(t, string(entries[1]), `"reference": "B2"`)

	reloaded, err := s.LoadDataset()
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, reloaded.References())
}

func TestSaveDataset_RoundTripAndFormat(t *testing.T) {
	s := newTestStore(t)

	records := []models.Record{
		{
			Reference:         ptr("BC-1"),
			ObjectDescription: ptr("Travaux d'aménagement <lot 2> & entretien"),
			Buyer:             ptr("جماعة الرباط"),
			PublicationDate:   ptr("07/03/2024 10:30"),
			IsAwarded:         true,
			AwardedCompany:    ptr("SARL Atlas"),
			AwardAmount:       ptr("12 500,00"),
		},
		{Reference: ptr("BC-2")},
	}
	require.NoError(t, s.SaveDataset(datasetOf(t, records...)))

	raw, err := os.ReadFile(s.DatasetPath())
	require.NoError(t, err)
	text := string(raw)

	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"reference\": \"BC-1\""))
	assert.Contains(t, text, "جماعة الرباط")
	assert.Contains(t, text, "<lot 2> & entretien")
	assert.Contains(t, text, `"quote_count": null`)
	assert.Contains(t, text, `"is_awarded": false`)

	var loaded []models.Record
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, records, loaded)
}

func TestSaveDataset_Empty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveDataset(nil))

	raw, err := os.ReadFile(s.DatasetPath())
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestSaveDataset_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveDataset(datasetOf(t, models.Record{Reference: ptr("A")})))
	require.NoError(t, s.SaveDataset(datasetOf(t, models.Record{Reference: ptr("B")})))

	entries, err := os.ReadDir(filepath.Dir(s.DatasetPath()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "donnees_marches.json", entries[0].Name())
}

func TestFailedPages(t *testing.T) {
	s := newTestStore(t)

	pages, err := s.LoadFailedPages()
	require.NoError(t, err)
	assert.Nil(t, pages)

	require.NoError(t, s.SaveFailedPages([]int{42, 7, 1300}))

	raw, err := os.ReadFile(s.FailedPath())
	require.NoError(t, err)
	assert.Equal(t, "[7,42,1300]", string(raw))

	pages, err = s.LoadFailedPages()
	require.NoError(t, err)
	assert.Equal(t, []int{7, 42, 1300}, pages)

	require.NoError(t, s.RemoveFailedPages())
	_, err = os.Stat(s.FailedPath())
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	assert.NoError(t, s.RemoveFailedPages())
}

func TestSaveDataset_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "out", "data.json"), filepath.Join(dir, "out", "failed.json"))

	require.NoError(t, s.SaveDataset(datasetOf(t, models.Record{Reference: ptr("X")})))
	_, err := os.Stat(s.DatasetPath())
	assert.NoError(t, err)
}

package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/law-makers/marches/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummary_Plain(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &models.Summary{
		Mode:          models.ModeFull,
		PagesTotal:    10,
		PagesFailed:   2,
		FailedPages:   []int{4, 9},
		RecordsSeen:   80,
		Accepted:      75,
		Duplicates:    5,
		Retries:       6,
		DatasetSize:   175,
		DatasetSaved:  true,
		FailedSaved:   true,
		DatasetPath:   "donnees_marches.json",
		FailedLogPath: "pages_non_traitees.json",
		Duration:      1500 * time.Millisecond,
	}, Plain)

	out := buf.String()
	assert.Contains(t, out, "75 new records added, 175 records saved.\n")
	assert.Contains(t, out, "pages: 8/10 ok, 6 retries")
	assert.Contains(t, out, "2 pages failed: 4, 9")
	assert.Contains(t, out, "saved to pages_non_traitees.json")
	assert.NotContains(t, out, "\033[")
}

func TestPrintSummary_NothingCrawled(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &models.Summary{Mode: models.ModeDaily, Today: "07/03/2024"}, Color)
	assert.Equal(t, "No new data found for 07/03/2024.\n", buf.String())
}

func TestPaletteColor(t *testing.T) {
	assert.Equal(t, ColorGreen+"ok"+ColorReset, Color.Success("ok"))
	assert.Equal(t, "ok", Plain.Success("ok"))
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryJSON(&buf, &models.Summary{
		RunID:      "run-1",
		Mode:       models.ModeDaily,
		Today:      "07/03/2024",
		PagesTotal: 100,
		Accepted:   3,
	}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "daily", got["mode"])
	assert.Equal(t, "3 new records added for 07/03/2024.", got["message"])
	assert.Equal(t, []any{}, got["failed_pages"])
}

func TestPageList(t *testing.T) {
	assert.Equal(t, "1, 2, 3", pageList([]int{1, 2, 3}, 5))
	assert.Equal(t, "1, 2, ... (+2)", pageList([]int{1, 2, 3, 4}, 2))
}

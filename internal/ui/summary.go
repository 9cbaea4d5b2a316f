package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/law-makers/marches/pkg/models"
)

// PrintSummary writes the human summary of a run: the headline line, the
// counters and any pages left unprocessed.
func PrintSummary(w io.Writer, s *models.Summary, p Palette) {
	headline := s.Line()
	if s.Accepted > 0 {
		headline = p.Success(headline)
	}
	fmt.Fprintln(w, headline)

	if s.PagesTotal == 0 {
		return
	}

	fmt.Fprintf(w, "  %s %d/%d ok, %d retries\n",
		p.Dim("pages:"), s.PagesTotal-s.PagesFailed, s.PagesTotal, s.Retries)
	fmt.Fprintf(w, "  %s %d seen, %d duplicates, %d repeated, %d off-date\n",
		p.Dim("records:"), s.RecordsSeen, s.Duplicates, s.Repeated, s.OffDate)
	if s.DatasetSaved {
		fmt.Fprintf(w, "  %s %s (%d records)\n", p.Dim("dataset:"), s.DatasetPath, s.DatasetSize)
	}

	if s.PagesFailed > 0 {
		line := fmt.Sprintf("  %d pages failed: %s", s.PagesFailed, pageList(s.FailedPages, 20))
		fmt.Fprintln(w, p.Warn(line))
		if s.FailedSaved {
			fmt.Fprintf(w, "  %s %s\n", p.Dim("saved to"), s.FailedLogPath)
		}
	}

	fmt.Fprintf(w, "  %s %s\n", p.Dim("took"), s.Duration.Round(time.Millisecond))
}

type summaryJSON struct {
	RunID        string   `json:"run_id"`
	Mode         string   `json:"mode"`
	Today        string   `json:"today,omitempty"`
	Message      string   `json:"message"`
	PagesTotal   int      `json:"pages_total"`
	PagesFailed  int      `json:"pages_failed"`
	FailedPages  []int    `json:"failed_pages"`
	RecordsSeen  int      `json:"records_seen"`
	Accepted     int      `json:"accepted"`
	Duplicates   int      `json:"duplicates"`
	Repeated     int      `json:"repeated"`
	OffDate      int      `json:"off_date"`
	Retries      int      `json:"retries"`
	DatasetSize  int      `json:"dataset_size"`
	DatasetSaved bool     `json:"dataset_saved"`
	FailedSaved  bool     `json:"failed_saved"`
	DurationMS   int64    `json:"duration_ms"`
	Paths        []string `json:"paths"`
}

// WriteSummaryJSON writes the summary as a single JSON object.
func WriteSummaryJSON(w io.Writer, s *models.Summary) error {
	failed := s.FailedPages
	if failed == nil {
		failed = []int{}
	}

	out := summaryJSON{
		RunID:        s.RunID,
		Mode:         string(s.Mode),
		Message:      s.Line(),
		PagesTotal:   s.PagesTotal,
		PagesFailed:  s.PagesFailed,
		FailedPages:  failed,
		RecordsSeen:  s.RecordsSeen,
		Accepted:     s.Accepted,
		Duplicates:   s.Duplicates,
		Repeated:     s.Repeated,
		OffDate:      s.OffDate,
		Retries:      s.Retries,
		DatasetSize:  s.DatasetSize,
		DatasetSaved: s.DatasetSaved,
		FailedSaved:  s.FailedSaved,
		DurationMS:   s.Duration.Milliseconds(),
		Paths:        []string{s.DatasetPath, s.FailedLogPath},
	}
	if s.Mode == models.ModeDaily {
		out.Today = s.Today
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// pageList renders at most limit page numbers.
func pageList(pages []int, limit int) string {
	parts := make([]string, 0, min(len(pages), limit)+1)
	for i, p := range pages {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... (+%d)", len(pages)-limit))
			break
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ", ")
}

// Package pipeline ties the crawl together: load the dataset, crawl pages,
// filter the extracted records, merge and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/law-makers/marches/internal/dedup"
	"github.com/law-makers/marches/internal/reqctx"
	"github.com/law-makers/marches/internal/store"
	"github.com/law-makers/marches/pkg/models"
	"github.com/rs/zerolog/log"
)

// Crawler streams page outcomes in completion order.
type Crawler interface {
	Run(ctx context.Context, pages []int) <-chan models.PageOutcome
}

// Pipeline runs one crawl in a given mode.
type Pipeline struct {
	store   *store.Store
	crawler Crawler
	mode    models.Mode
	today   string
}

// New creates a Pipeline. today is the dd/mm/yyyy token used by daily mode.
func New(st *store.Store, crawler Crawler, mode models.Mode, today string) *Pipeline {
	return &Pipeline{
		store:   st,
		crawler: crawler,
		mode:    mode,
		today:   today,
	}
}

// Run crawls pages and merges the accepted records into the dataset.
// The only errors returned are storage errors; page failures are reported
// in the summary. A non-nil summary may come with an error when the crawl
// finished but a file could not be written.
//
// In full mode the failed-page log is reconciled after the crawl: pages
// crawled successfully leave it, new failures join it, and the file is
// removed once it would be empty.
func (p *Pipeline) Run(ctx context.Context, pages []int) (*models.Summary, error) {
	var logged []int
	if p.mode == models.ModeFull {
		var err error
		logged, err = p.store.LoadFailedPages()
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring unreadable failed-page log")
			logged = nil
		}
	}
	return p.run(ctx, pages, logged)
}

// RetryFailed re-crawls the pages listed in the failed-page log with full
// mode semantics. The log is rewritten with the pages that still fail, or
// removed when none remain.
func (p *Pipeline) RetryFailed(ctx context.Context) (*models.Summary, error) {
	pages, err := p.store.LoadFailedPages()
	if err != nil {
		return nil, err
	}

	full := New(p.store, p.crawler, models.ModeFull, p.today)
	return full.run(ctx, pages, pages)
}

func (p *Pipeline) run(ctx context.Context, pages, logged []int) (*models.Summary, error) {
	summary, err := p.crawl(ctx, pages)
	if summary == nil {
		return nil, err
	}

	// The log is written even when the dataset could not be.
	if p.mode == models.ModeFull {
		if logErr := p.updateFailedLog(summary, pages, logged); logErr != nil {
			err = errors.Join(err, logErr)
		}
	}

	return summary, err
}

// updateFailedLog rewrites the failed-page log as the logged pages that were
// not crawled this run plus this run's failures.
func (p *Pipeline) updateFailedLog(summary *models.Summary, pages, logged []int) error {
	crawled := make(map[int]struct{}, len(pages))
	for _, page := range pages {
		crawled[page] = struct{}{}
	}

	remaining := append([]int(nil), summary.FailedPages...)
	for _, page := range logged {
		if _, ok := crawled[page]; !ok {
			remaining = append(remaining, page)
		}
	}
	sort.Ints(remaining)
	remaining = slices.Compact(remaining)

	if len(remaining) == 0 {
		if len(logged) == 0 {
			return nil
		}
		return p.store.RemoveFailedPages()
	}

	if err := p.store.SaveFailedPages(remaining); err != nil {
		return err
	}
	summary.FailedSaved = true
	return nil
}

func (p *Pipeline) crawl(ctx context.Context, pages []int) (*models.Summary, error) {
	ctx = reqctx.WithRunContext(ctx)
	rc := reqctx.GetRunContext(ctx)

	logger := log.With().
		Str("run_id", rc.RunID).
		Str("mode", string(p.mode)).
		Logger()

	// Any storage problem must surface before the first request.
	dataset, err := p.store.LoadDataset()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	filter := dedup.NewFilter(dedup.NewSnapshot(dataset.References()), p.mode, p.today)

	summary := &models.Summary{
		RunID:         rc.RunID,
		Mode:          p.mode,
		Today:         p.today,
		PagesTotal:    len(pages),
		DatasetPath:   p.store.DatasetPath(),
		FailedLogPath: p.store.FailedPath(),
	}

	logger.Info().
		Int("pages", len(pages)).
		Int("existing_records", dataset.Len()).
		Str("today", p.today).
		Msg("Crawl started")

	var accepted []models.Record
	for outcome := range p.crawler.Run(ctx, pages) {
		summary.Retries += outcome.Retries()

		if outcome.Failed {
			summary.FailedPages = append(summary.FailedPages, outcome.Page)
			continue
		}

		for _, rec := range outcome.Records {
			summary.RecordsSeen++
			switch filter.Check(rec) {
			case dedup.Accept:
				accepted = append(accepted, rec)
			case dedup.RejectDuplicate:
				summary.Duplicates++
			case dedup.RejectRepeated:
				summary.Repeated++
			case dedup.RejectOffDate:
				summary.OffDate++
			}
		}
	}

	sort.Ints(summary.FailedPages)
	summary.PagesFailed = len(summary.FailedPages)
	summary.Accepted = len(accepted)
	summary.DatasetSize = dataset.Len()

	if len(accepted) > 0 {
		if err := dataset.Append(accepted...); err != nil {
			return summary, err
		}
		if err := p.store.SaveDataset(dataset); err != nil {
			return summary, err
		}
		summary.DatasetSaved = true
		summary.DatasetSize = dataset.Len()
	}

	summary.Duration = rc.Elapsed()

	logger.Info().
		Int("accepted", summary.Accepted).
		Int("duplicates", summary.Duplicates).
		Int("repeated", summary.Repeated).
		Int("off_date", summary.OffDate).
		Int("failed_pages", summary.PagesFailed).
		Int("retries", summary.Retries).
		Dur("duration", summary.Duration).
		Msg("Crawl finished")

	return summary, nil
}

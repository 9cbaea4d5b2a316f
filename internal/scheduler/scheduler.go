// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"

	"github.com/law-makers/marches/pkg/models"
	"github.com/rs/zerolog/log"
)

// PageFetcher fetches and extracts a single page.
type PageFetcher interface {
	Fetch(ctx context.Context, page int) models.PageOutcome
}

// Progress receives one tick per completed page. It is informational only.
type Progress interface {
	Add(n int) error
}

// Scheduler runs page fetches on a fixed-size worker pool
type Scheduler struct {
	fetcher  PageFetcher
	workers  int
	progress Progress
}

// New creates a Scheduler with the given number of workers.
// progress may be nil.
func New(fetcher PageFetcher, workers int, progress Progress) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		fetcher:  fetcher,
		workers:  workers,
		progress: progress,
	}
}

// Workers returns the pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Run fetches every page and streams outcomes in completion order.
// The channel is closed once each page has produced exactly one outcome.
func (s *Scheduler) Run(ctx context.Context, pages []int) <-chan models.PageOutcome {
	results := make(chan models.PageOutcome, s.workers)

	if len(pages) == 0 {
		close(results)
		return results
	}

	jobs := make(chan int, s.workers)

	workers := s.workers
	if workers > len(pages) {
		workers = len(pages)
	}

	// Start workers
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go s.worker(ctx, w, jobs, results, &wg)
	}

	// Send jobs to workers
	go func() {
		for _, page := range pages {
			jobs <- page
		}
		close(jobs)
	}()

	// Close results once every worker is done
	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// worker processes pages from the jobs channel. Cancellation is handled by
// the fetcher, which returns a failed outcome without touching the network,
// so every page still yields an outcome.
func (s *Scheduler) worker(ctx context.Context, id int, jobs <-chan int, results chan<- models.PageOutcome, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Debug().Int("worker_id", id).Msg("Worker started")

	for page := range jobs {
		outcome := s.fetcher.Fetch(ctx, page)

		if s.progress != nil {
			_ = s.progress.Add(1)
		}

		results <- outcome
	}

	log.Debug().Int("worker_id", id).Msg("Worker finished")
}

// PageRange returns the inclusive page numbers [first, last].
func PageRange(first, last int) []int {
	if first < 1 {
		first = 1
	}
	if last < first {
		return nil
	}
	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

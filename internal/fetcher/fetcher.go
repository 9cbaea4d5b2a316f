// Package fetcher retrieves result pages from the procurement portal and
// hands their markup to the record extractor.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/marches/internal/extract"
	"github.com/law-makers/marches/internal/ratelimit"
	"github.com/law-makers/marches/internal/retry"
	"github.com/law-makers/marches/pkg/models"
	"github.com/rs/zerolog/log"
)

// Doer is the part of *http.Client the fetcher needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Fetcher.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration // per attempt
	Retry     retry.Config
}

// Fetcher turns a page number into a PageOutcome. It never returns an error:
// exhausted pages come back with Failed set.
type Fetcher struct {
	client    Doer
	limiter   ratelimit.RateLimiter
	extractor *extract.Extractor
	opts      Options
}

// New creates a Fetcher with dependency injection
func New(client Doer, limiter ratelimit.RateLimiter, extractor *extract.Extractor, opts Options) *Fetcher {
	return &Fetcher{
		client:    client,
		limiter:   limiter,
		extractor: extractor,
		opts:      opts,
	}
}

// PageURL returns the listing URL for page.
func (f *Fetcher) PageURL(page int) string {
	u, err := url.Parse(f.opts.BaseURL)
	if err != nil {
		return fmt.Sprintf("%s?page=%d", f.opts.BaseURL, page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch retrieves one page, retrying on bad statuses and transport errors.
func (f *Fetcher) Fetch(ctx context.Context, page int) models.PageOutcome {
	pageURL := f.PageURL(page)

	var records []models.Record
	attempts, err := retry.Do(ctx, f.opts.Retry, func(attempt int) error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, pageURL); err != nil {
				return err
			}
		}

		recs, err := f.fetchOnce(ctx, pageURL)
		if err != nil {
			log.Debug().
				Err(err).
				Int("page", page).
				Int("attempt", attempt+1).
				Int("max_attempts", f.opts.Retry.MaxAttempts).
				Msg("Page attempt failed")
			return err
		}

		records = recs
		return nil
	})

	outcome := models.PageOutcome{
		Page:     page,
		Attempts: attempts,
	}

	if err != nil {
		outcome.Failed = true
		outcome.Err = err
		if ctx.Err() == nil {
			log.Warn().
				Err(err).
				Int("page", page).
				Int("attempts", attempts).
				Msg("Page failed permanently")
		}
		return outcome
	}

	outcome.Records = records

	log.Debug().
		Int("page", page).
		Int("attempts", attempts).
		Int("records", len(records)).
		Msg("Page fetched")

	return outcome
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) ([]models.Record, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retry.NewHTTPError(resp.StatusCode, resp.Status, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return f.extractor.ExtractPage(doc), nil
}

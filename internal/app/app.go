// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/law-makers/marches/internal/config"
	"github.com/law-makers/marches/internal/dedup"
	"github.com/law-makers/marches/internal/extract"
	"github.com/law-makers/marches/internal/fetcher"
	"github.com/law-makers/marches/internal/pipeline"
	"github.com/law-makers/marches/internal/proxy"
	"github.com/law-makers/marches/internal/ratelimit"
	"github.com/law-makers/marches/internal/retry"
	"github.com/law-makers/marches/internal/scheduler"
	"github.com/law-makers/marches/internal/store"
	"github.com/law-makers/marches/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. Use Close() to release
// pooled connections on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	HTTPClient *http.Client
	Limiter    *ratelimit.Pacer
	Extractor  *extract.Extractor
	Store      *store.Store

	// Now is the clock used for the daily date token.
	Now func() time.Time

	progressOut io.Writer
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures the global logger from the config
//   - Creates the request pacer
//   - Initializes the HTTP client, rotating proxies when configured
//   - Creates the extractor and the file store
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)

	limiter := ratelimit.NewPacer(cfg.MinDelay, cfg.MaxDelay, cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Dur("min_delay", cfg.MinDelay).
		Dur("max_delay", cfg.MaxDelay).
		Float64("rps", cfg.RateLimitRPS).
		Msg("Pacer initialized")

	// Per-attempt deadlines come from the request context; the client
	// timeout is only a ceiling.
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: config.MaxWorkers,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   max(cfg.TimeoutFor(models.ModeFull), cfg.TimeoutFor(models.ModeDaily)) * 2,
		Transport: transport,
	}

	if len(cfg.Proxies) > 0 {
		pool, err := proxy.NewPool(cfg.Proxies, config.DefaultProxyCooldown)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = proxy.NewTransport(pool, transport)
		logger.Debug().Int("proxies", pool.Len()).Msg("Proxy rotation enabled")
	}

	st := store.New(cfg.DatasetPath, cfg.FailedPagesPath)
	logger.Debug().
		Str("dataset", st.DatasetPath()).
		Str("failed_pages", st.FailedPath()).
		Msg("Store initialized")

	a := &Application{
		Config:      cfg,
		Logger:      &logger,
		HTTPClient:  httpClient,
		Limiter:     limiter,
		Extractor:   extract.New(extract.DefaultLayout()),
		Store:       st,
		Now:         time.Now,
		progressOut: os.Stderr,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized")
	return a, nil
}

// SetupLogging configures the global zerolog logger and returns it.
func SetupLogging(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = w
	if !cfg.JSONLog {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// Pipeline builds a crawl pipeline for mode. total sizes the progress bar.
func (a *Application) Pipeline(mode models.Mode, total int) *pipeline.Pipeline {
	cfg := a.Config

	f := fetcher.New(a.HTTPClient, a.Limiter, a.Extractor, fetcher.Options{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.TimeoutFor(mode),
		Retry: retry.Config{
			MaxAttempts: cfg.MaxAttempts,
			MinBackoff:  cfg.MinBackoff,
			MaxBackoff:  cfg.MaxBackoff,
		},
	})

	sched := scheduler.New(f, cfg.Workers, a.progress(mode, total))

	return pipeline.New(a.Store, sched, mode, a.Today())
}

// Pages returns the page range crawled in mode.
func (a *Application) Pages(mode models.Mode) []int {
	return scheduler.PageRange(1, a.Config.MaxPageFor(mode))
}

// Today returns the dd/mm/yyyy token for the current local date.
func (a *Application) Today() string {
	return dedup.TodayToken(a.Now())
}

func (a *Application) progress(mode models.Mode, total int) scheduler.Progress {
	if a.Config.Quiet || a.Config.JSONLog || a.progressOut == nil {
		return progressbar.DefaultSilent(int64(total))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(a.progressOut),
		progressbar.OptionSetDescription(fmt.Sprintf("%s crawl", mode)),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Close gracefully shuts down the application and all its resources.
func (a *Application) Close(ctx context.Context) error {
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}


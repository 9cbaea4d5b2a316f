package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/marches/internal/app"
	"github.com/law-makers/marches/internal/ui"
	"github.com/law-makers/marches/pkg/models"
)

func newFullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Crawl the whole result listing",
		Long: `Walks every result page, keeps every record whose reference is not already
in the dataset and records pages that still fail after retries in the failed-page log.`,
		Example: `  # Full crawl with the default page range
  marches full

  # First 50 pages with 5 workers
  marches full --max-page 50 --workers 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, models.ModeFull)
		},
	}
}

func newDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Crawl the most recent pages for today's results",
		Long: `Walks the first result pages and keeps only new records published today.
Failed pages are reported but not written to the failed-page log.`,
		Example: `  # Daily update
  marches daily

  # JSON logs and summary, no progress bar
  marches daily --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, models.ModeDaily)
		},
	}
}

func newRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Crawl again the pages listed in the failed-page log",
		Long: `Re-crawls the pages recorded by a previous full crawl. The log is rewritten
with the pages that still fail, or removed once every page succeeded.`,
		Args: cobra.NoArgs,
		RunE: runRetry,
	}
}

func runMode(cmd *cobra.Command, mode models.Mode) error {
	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}

	pages := a.Pages(mode)
	log.Info().
		Str("mode", string(mode)).
		Int("pages", len(pages)).
		Int("workers", a.Config.Workers).
		Str("base_url", a.Config.BaseURL).
		Msg("Starting crawl")

	summary, err := a.Pipeline(mode, len(pages)).Run(cmd.Context(), pages)
	if err != nil {
		if summary != nil {
			report(cmd, a, summary)
		}
		return fmt.Errorf("%s crawl: %w", mode, err)
	}

	return report(cmd, a, summary)
}

func runRetry(cmd *cobra.Command, args []string) error {
	a, err := resolveApp(cmd)
	if err != nil {
		return err
	}

	pages, err := a.Store.LoadFailedPages()
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No failed pages to retry.")
		return nil
	}

	log.Info().
		Int("pages", len(pages)).
		Str("failed_pages", a.Store.FailedPath()).
		Msg("Retrying failed pages")

	summary, err := a.Pipeline(models.ModeFull, len(pages)).RetryFailed(cmd.Context())
	if err != nil {
		if summary != nil {
			report(cmd, a, summary)
		}
		return fmt.Errorf("retry: %w", err)
	}

	return report(cmd, a, summary)
}

func report(cmd *cobra.Command, a *app.Application, summary *models.Summary) error {
	if cmd.Context().Err() != nil {
		log.Warn().
			Int("failed_pages", summary.PagesFailed).
			Msg("Run interrupted; unfinished pages were recorded as failed")
	}

	out := cmd.OutOrStdout()
	if a.Config.JSONLog {
		return ui.WriteSummaryJSON(out, summary)
	}
	ui.PrintSummary(out, summary, palette(out))
	return nil
}

package config

import "github.com/spf13/cobra"

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"json":         "json",
	"quiet":        "quiet",
	"base-url":     "base_url",
	"user-agent":   "user_agent",
	"workers":      "workers",
	"attempts":     "attempts",
	"timeout":      "timeout",
	"max-page":     "max_page",
	"rps":          "rps",
	"dataset":      "dataset",
	"failed-pages": "failed_pages",
	"proxy":        "proxy",
}

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.BoolP("quiet", "q", false, "Suppress all output except errors")
	flags.Bool("json", DefaultJSONLog, "Write logs as JSON and hide the progress bar")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.String("config", "", "Path to configuration file (optional)")

	flags.String("base-url", DefaultBaseURL, "Result listing URL")
	flags.String("user-agent", DefaultUserAgent, "User-Agent header sent to the portal")
	flags.IntP("workers", "w", DefaultWorkers, "Concurrent page fetches (1-15)")
	flags.Int("attempts", DefaultMaxAttempts, "Attempts per page before it is recorded as failed")
	flags.Duration("timeout", 0, "Per-attempt timeout (0 uses the mode default)")
	flags.Int("max-page", 0, "Last page to crawl (0 uses the mode default)")
	flags.Float64("rps", DefaultRateLimitRPS, "Cap on requests per second (0 disables)")
	flags.String("dataset", DefaultDatasetPath, "Dataset file")
	flags.String("failed-pages", DefaultFailedPagesPath, "Failed-page log file")
	flags.StringSlice("proxy", nil, "HTTP/SOCKS5 proxies to rotate through (e.g., http://localhost:8080)")
}

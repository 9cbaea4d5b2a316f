package config

import (
	"fmt"
	"net/url"
	"strings"
)

func validate(c *Config) error {
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("attempts must be >= 1")
	}
	if c.Timeout < 0 || c.FullTimeout <= 0 || c.DailyTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.MaxPage < 0 || c.FullMaxPage < 1 || c.DailyMaxPage < 1 {
		return fmt.Errorf("page limits must be >= 1")
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay range %s..%s is invalid", c.MinDelay, c.MaxDelay)
	}
	if c.MinBackoff < 0 || c.MaxBackoff < c.MinBackoff {
		return fmt.Errorf("backoff range %s..%s is invalid", c.MinBackoff, c.MaxBackoff)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rps must be >= 0")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base url must be an http(s) URL: %q", c.BaseURL)
	}

	if strings.TrimSpace(c.DatasetPath) == "" {
		return fmt.Errorf("dataset path is required")
	}
	if strings.TrimSpace(c.FailedPagesPath) == "" {
		return fmt.Errorf("failed-pages path is required")
	}
	if c.DatasetPath == c.FailedPagesPath {
		return fmt.Errorf("dataset and failed-pages paths must differ")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with randomized backoff
type Config struct {
	MaxAttempts int           // Total attempts, including the first one
	MinBackoff  time.Duration // Lower bound of the wait after a failed attempt
	MaxBackoff  time.Duration // Upper bound of the wait after a failed attempt
}

// Do runs fn until it succeeds, the attempt budget is spent or ctx is done.
// It returns the number of attempts actually made.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	attempts := 0

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		attempts++
		err := fn(attempt)

		// Success
		if err == nil {
			if attempt > 0 {
				log.Debug().
					Int("attempts", attempts).
					Msg("Retry succeeded")
			}
			return attempts, nil
		}

		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempts, ctxErr
		}

		if !shouldRetry(err) {
			log.Debug().
				Err(err).
				Msg("Error is not retryable")
			return attempts, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			backoff := cfg.Backoff()

			log.Debug().
				Int("attempt", attempts).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			if err := sleep(ctx, backoff); err != nil {
				return attempts, err
			}
		}
	}

	return attempts, fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// Backoff returns a random wait in [MinBackoff, MaxBackoff]. The window is
// the same for every attempt.
func (c Config) Backoff() time.Duration {
	return Jitter(c.MinBackoff, c.MaxBackoff)
}

// Jitter returns a uniformly distributed duration in [lo, hi].
func Jitter(lo, hi time.Duration) time.Duration {
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Our own cancellation is final; a per-attempt deadline is not.
	// Transport errors, timeouts and bad statuses all count as failed attempts.
	return !errors.Is(err, context.Canceled)
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, status string, url string) HTTPError {
	return HTTPError{
		StatusCode: statusCode,
		Status:     status,
		URL:        url,
	}
}

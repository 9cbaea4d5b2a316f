// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/law-makers/marches/internal/retry"
	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for pacing outgoing requests.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled first, its error is returned.
	Wait(ctx context.Context, urlStr string) error
}

// Pacer spreads load on the portal: every request waits a random delay in
// [minDelay, maxDelay], and optionally a per-host token bucket on top.
type Pacer struct {
	minDelay time.Duration
	maxDelay time.Duration
	domains  *DomainLimiter // nil disables the token bucket
}

// NewPacer creates a Pacer. A non-positive rps disables the token bucket.
func NewPacer(minDelay, maxDelay time.Duration, rps float64, burst int) *Pacer {
	p := &Pacer{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
	if rps > 0 {
		p.domains = NewDomainLimiter(rps, burst)
	}
	return p
}

// Wait applies the token bucket (if any) and then the random delay.
func (p *Pacer) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if p.domains != nil {
		if err := p.domains.Wait(ctx, urlStr); err != nil {
			return err
		}
	}

	delay := retry.Jitter(p.minDelay, p.maxDelay)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DomainLimiter provides per-domain rate limiting to avoid IP bans.
// It uses the token bucket algorithm for smooth rate limiting.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit // Requests per second per host
	burst    int        // Burst capacity
}

// NewDomainLimiter creates a new rate limiter with the specified per-host rate
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the request for the given URL can proceed according to rate limits
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	domain := extractDomain(urlStr)
	if domain == "" {
		// Invalid URL, let it proceed (will fail elsewhere)
		return nil
	}

	return dl.getLimiter(domain).Wait(ctx)
}

// getLimiter returns or creates a rate limiter for the given domain
func (dl *DomainLimiter) getLimiter(domain string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[domain]
	dl.mu.RUnlock()

	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[domain] = limiter

	return limiter
}

// extractDomain extracts the domain from a URL string
func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}

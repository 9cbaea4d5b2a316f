// Package proxy rotates outgoing portal requests across a list of HTTP or
// SOCKS5 proxies, benching a proxy for a while after a transport failure.
package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Pool hands out proxies round-robin and skips recently failed ones.
type Pool struct {
	proxies  []*url.URL
	index    int
	cooldown time.Duration
	failed   map[string]time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewPool parses raw proxy URLs (http, https or socks5). Empty entries are ignored.
func NewPool(raw []string, cooldown time.Duration) (*Pool, error) {
	p := &Pool{
		cooldown: cooldown,
		failed:   make(map[string]time.Time),
		now:      time.Now,
	}
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", s, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("invalid proxy %q: unsupported scheme %q", s, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q: missing host", s)
		}
		p.proxies = append(p.proxies, u)
	}
	return p, nil
}

// Len returns the number of configured proxies.
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy, or nil when the pool is empty.
// When every proxy is benched the next one in rotation is returned anyway.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	now := p.now()
	for range p.proxies {
		u := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failedAt, ok := p.failed[u.Host]
		if !ok {
			return u
		}
		if now.Sub(failedAt) >= p.cooldown {
			delete(p.failed, u.Host)
			return u
		}
	}

	u := p.proxies[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	return u
}

// MarkFailed benches a proxy for the cooldown period.
func (p *Pool) MarkFailed(u *url.URL) {
	if u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[u.Host] = p.now()
}

// MarkHealthy clears the failure status of a proxy.
func (p *Pool) MarkHealthy(u *url.URL) {
	if u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, u.Host)
}

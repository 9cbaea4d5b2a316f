package proxy

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

// Transport is an http.RoundTripper that routes each request through the
// next proxy of a Pool.
type Transport struct {
	pool *Pool
	base *http.Transport
}

// NewTransport wraps base so each request picks its proxy from pool.
// base.Proxy is replaced.
func NewTransport(pool *Pool, base *http.Transport) *Transport {
	base.Proxy = func(req *http.Request) (*url.URL, error) {
		u, _ := req.Context().Value(ctxKey{}).(*url.URL)
		return u, nil
	}
	return &Transport{pool: pool, base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := t.pool.Next()
	if u == nil {
		return t.base.RoundTrip(req)
	}

	resp, err := t.base.RoundTrip(req.WithContext(context.WithValue(req.Context(), ctxKey{}, u)))
	if err != nil {
		// Our own cancellation says nothing about the proxy.
		if req.Context().Err() == nil {
			t.pool.MarkFailed(u)
			log.Debug().
				Err(err).
				Str("proxy", u.Redacted()).
				Msg("Proxy failed")
		}
		return nil, err
	}

	t.pool.MarkHealthy(u)
	return resp, nil
}

// CloseIdleConnections closes idle connections of the underlying transport.
func (t *Transport) CloseIdleConnections() {
	t.base.CloseIdleConnections()
}

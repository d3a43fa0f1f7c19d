package ethrpc

import (
	"context"
	"log/slog"
	"net/http"

	cachestore "github.com/goware/cachestore2"
)

type Option func(*Provider)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Breaker retries a request with backoff, ie. github.com/goware/breaker.
type Breaker interface {
	Do(ctx context.Context, fn func() error) error
}

func WithHTTPClient(c httpClient) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

func WithBreaker(br Breaker) Option {
	return func(p *Provider) {
		p.br = br
	}
}

// WithCache enables caching of ENS lookups.
func WithCache(cache cachestore.Store[[]byte]) Option {
	return func(p *Provider) {
		p.cache = cache
	}
}

// WithCheatCodePrefix sets the namespace of dev node methods, "anvil" (default) or "hardhat".
func WithCheatCodePrefix(prefix string) Option {
	return func(p *Provider) {
		p.cheatPrefix = prefix
	}
}

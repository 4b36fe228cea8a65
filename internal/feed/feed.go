// Package feed hosts streaming bar sources for paper mode.
package feed

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trendback-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic bars (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams closed klines from Binance public websockets.
	ProviderBinance = "binance"
)

// Feed represents a pluggable bar stream implementation.
type Feed struct {
	provider string
	symbol   string
	interval string
	log      zerolog.Logger

	stubPeriod time.Duration
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithStubPeriod overrides how fast the stub provider emits bars.
func WithStubPeriod(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.stubPeriod = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol, interval string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	if interval == "" {
		interval = "1m"
	}
	f := &Feed{
		provider:   strings.ToLower(provider),
		symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		interval:   interval,
		log:        log,
		stubPeriod: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run pushes completed bars onto the provided channel until the context is
// canceled.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Bar) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.Bar) error {
	ticker := time.NewTicker(f.stubPeriod)
	defer ticker.Stop()

	px := 100.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			open := px
			px += 0.1
			bar := signal.Bar{
				Time:   ts,
				Open:   open,
				High:   px + 0.05,
				Low:    open - 0.05,
				Close:  px,
				Volume: 1,
			}
			select {
			case out <- bar:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

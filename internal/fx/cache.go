package fx

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/festbook-cart/internal/obs"
)

// SharedStore is an optional cross-process tier holding rate tables by date.
type SharedStore interface {
	Get(ctx context.Context, date string) (Table, bool, error)
	Put(ctx context.Context, date string, table Table) error
}

// RateCache keeps the rate table of the current UTC day. The snapshot is
// replaced wholesale when the day changes; older dates are dropped. Fetches
// happen outside the lock, so concurrent first lookups of a day may each hit
// the provider.
type RateCache struct {
	provider RateProvider
	shared   SharedStore
	now      func() time.Time
	logger   zerolog.Logger

	mu    sync.RWMutex
	date  string
	table Table
}

// CacheOption customises a RateCache.
type CacheOption func(*RateCache)

// WithSharedStore adds a shared tier consulted before the provider.
func WithSharedStore(store SharedStore) CacheOption {
	return func(c *RateCache) { c.shared = store }
}

// WithClock overrides the clock used to pick the current date.
func WithClock(now func() time.Time) CacheOption {
	return func(c *RateCache) { c.now = now }
}

// WithLogger sets the logger for shared tier and provider failures.
func WithLogger(logger zerolog.Logger) CacheOption {
	return func(c *RateCache) { c.logger = logger }
}

// NewRateCache builds an empty cache backed by provider.
func NewRateCache(provider RateProvider, opts ...CacheOption) *RateCache {
	c := &RateCache{provider: provider, now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns today's rate table, fetching it when the cached snapshot
// belongs to another day.
func (c *RateCache) Table(ctx context.Context) (Table, error) {
	date := DateKey(c.now())

	c.mu.RLock()
	if c.date == date && c.table != nil {
		table := c.table
		c.mu.RUnlock()
		obs.FXCacheLookupsTotal.WithLabelValues("hit").Inc()
		return table, nil
	}
	c.mu.RUnlock()

	if c.shared != nil {
		table, ok, err := c.shared.Get(ctx, date)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("date", date).Msg("fx shared rate lookup failed")
		case ok:
			obs.FXCacheLookupsTotal.WithLabelValues("shared_hit").Inc()
			c.replace(date, table)
			return table, nil
		}
	}

	obs.FXCacheLookupsTotal.WithLabelValues("miss").Inc()
	table, err := c.fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	c.replace(date, table)
	return table, nil
}

// Warm fetches today's table from the provider and publishes it to the local
// snapshot and the shared tier.
func (c *RateCache) Warm(ctx context.Context) (string, error) {
	date := DateKey(c.now())
	table, err := c.fetch(ctx, date)
	if err != nil {
		return date, err
	}
	c.replace(date, table)
	return date, nil
}

func (c *RateCache) fetch(ctx context.Context, date string) (Table, error) {
	if c.provider == nil {
		obs.FXRateFetchTotal.WithLabelValues("error").Inc()
		return nil, ErrRateUnavailable
	}
	table, err := c.provider.Historical(ctx, date)
	if err != nil {
		obs.FXRateFetchTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	obs.FXRateFetchTotal.WithLabelValues("success").Inc()
	if c.shared != nil {
		if err := c.shared.Put(ctx, date, table); err != nil {
			c.logger.Warn().Err(err).Str("date", date).Msg("fx shared rate store failed")
		}
	}
	return table, nil
}

func (c *RateCache) replace(date string, table Table) {
	c.mu.Lock()
	c.date = date
	c.table = table
	c.mu.Unlock()
}

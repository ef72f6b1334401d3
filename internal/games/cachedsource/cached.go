// Package cachedsource provides an in-memory caching wrapper for games.Source.
package cachedsource

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/discochess/gamereview/internal/games"
	"github.com/discochess/gamereview/internal/stats"
)

const (
	// DefaultSize is the number of monthly listings kept.
	DefaultSize = 64

	// DefaultTTL bounds how stale a listing may get; the current month keeps
	// growing as the player finishes games.
	DefaultTTL = 5 * time.Minute

	// DefaultFetchTimeout bounds a shared upstream call once it no longer
	// follows any single caller's context.
	DefaultFetchTimeout = time.Minute
)

// Compile-time check that Source implements games.Source.
var _ games.Source = (*Source)(nil)

// Source wraps another Source with an expiring LRU of monthly listings.
// Concurrent requests for the same listing share one upstream call.
type Source struct {
	underlying games.Source
	cache      *expirable.LRU[string, []games.Record]
	group      singleflight.Group
	collector  stats.Collector
	timeout    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Source.
type Option func(*config)

type config struct {
	size      int
	ttl       time.Duration
	timeout   time.Duration
	collector stats.Collector
}

// WithSize sets the maximum number of cached listings.
func WithSize(n int) Option {
	return func(c *config) { c.size = n }
}

// WithTTL sets how long a listing stays cached.
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

// WithFetchTimeout bounds each shared upstream call.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithStats sets the stats collector.
func WithStats(collector stats.Collector) Option {
	return func(c *config) { c.collector = collector }
}

// New creates a caching wrapper around underlying.
func New(underlying games.Source, opts ...Option) *Source {
	cfg := config{
		size:      DefaultSize,
		ttl:       DefaultTTL,
		timeout:   DefaultFetchTimeout,
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Source{
		underlying: underlying,
		cache:      expirable.NewLRU[string, []games.Record](cfg.size, nil, cfg.ttl),
		collector:  cfg.collector,
		timeout:    cfg.timeout,
	}
}

// Month returns the cached listing or fetches it from the underlying source.
// The returned slice is owned by the caller. A shared upstream call is
// detached from the caller that started it, so one caller giving up does not
// fail the others waiting on the same listing.
func (s *Source) Month(ctx context.Context, handle string, period games.Period) ([]games.Record, error) {
	key := strings.ToLower(handle) + "@" + period.String()

	if records, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		s.collector.IncCounter(stats.MetricCacheHits, 1)
		return slices.Clone(records), nil
	}
	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricCacheMisses, 1)

	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		records, err := s.underlying.Month(fetchCtx, handle, period)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, records)
		s.collector.SetGauge(stats.MetricCacheSize, int64(s.cache.Len()))
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]games.Record)), nil
	}
}

// Stats returns cache statistics.
func (s *Source) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.cache.Len(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of listings
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

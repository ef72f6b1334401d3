// Package gamereviewfx provides an fx module for a gamereview client.
package gamereviewfx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/games/cachedsource"
	"github.com/discochess/gamereview/internal/stats"
	"github.com/discochess/gamereview/internal/stats/logger"
)

// Config holds configuration for the gamereview client.
// Zero values select the library defaults.
type Config struct {
	// UserAgent is sent to chess.com. The archive API asks for contact details.
	UserAgent string

	// AnalysisEndpoint overrides the analysis websocket URL.
	AnalysisEndpoint string

	// Timeout bounds each analysis. Default is 2 minutes.
	Timeout time.Duration

	// CacheSize is the number of monthly listings kept in memory.
	// Negative disables the cache. Default is 64.
	CacheSize int

	// CacheTTL is how long a cached listing stays fresh. Default is 5 minutes.
	CacheTTL time.Duration

	// ProvisioningRate caps new analysis accounts per second.
	// Zero means unlimited.
	ProvisioningRate float64

	// ProvisioningBurst is the burst allowed above ProvisioningRate.
	// Default is 1.
	ProvisioningBurst int
}

// Module provides a *gamereview.Client.
// Requires a Config and a *zap.Logger to be provided. A stats.Collector is
// used if one is provided, otherwise metrics are logged at debug level.
var Module = fx.Module("gamereview",
	fx.Provide(newClient),
)

// Params holds dependencies for creating the client.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided client.
type Result struct {
	fx.Out

	Client *gamereview.Client
}

func newClient(p Params) (Result, error) {
	collector := p.Collector
	if collector == nil {
		collector = logger.New(p.Logger.Named("gamereview.stats"))
	}

	client, err := gamereview.New(clientOptions(p.Config, collector, p.Logger)...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Result{Client: client}, nil
}

// clientOptions translates cfg into client options.
func clientOptions(cfg Config, collector stats.Collector, log *zap.Logger) []gamereview.Option {
	opts := []gamereview.Option{
		gamereview.WithStats(collector),
		gamereview.WithLogger(log.Named("gamereview")),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, gamereview.WithUserAgent(cfg.UserAgent))
	}
	if cfg.AnalysisEndpoint != "" {
		opts = append(opts, gamereview.WithAnalysisEndpoint(cfg.AnalysisEndpoint))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gamereview.WithTimeout(cfg.Timeout))
	}
	if cfg.CacheSize != 0 || cfg.CacheTTL != 0 {
		size, ttl := cachedsource.DefaultSize, cachedsource.DefaultTTL
		switch {
		case cfg.CacheSize > 0:
			size = cfg.CacheSize
		case cfg.CacheSize < 0:
			size = 0
		}
		if cfg.CacheTTL > 0 {
			ttl = cfg.CacheTTL
		}
		opts = append(opts, gamereview.WithListingCache(size, ttl))
	}
	if cfg.ProvisioningRate > 0 {
		burst := cfg.ProvisioningBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, gamereview.WithProvisioningRate(rate.Limit(cfg.ProvisioningRate), burst))
	}
	return opts
}

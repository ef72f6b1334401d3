package gamereview

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discochess/gamereview/internal/credential"
	"github.com/discochess/gamereview/internal/games"
	"github.com/discochess/gamereview/internal/games/cachedsource"
	"github.com/discochess/gamereview/internal/session"
	"github.com/discochess/gamereview/internal/stats"
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	games       games.Source
	credentials credential.Source

	userAgent  string
	httpClient *http.Client

	endpoint string
	timeout  time.Duration
	progress func(action string)

	cacheSize int
	cacheTTL  time.Duration

	provisionLimit rate.Limit
	provisionBurst int

	clock  func() time.Time
	stats  stats.Collector
	logger *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		endpoint:       session.DefaultEndpoint,
		timeout:        session.DefaultTimeout,
		cacheSize:      cachedsource.DefaultSize,
		cacheTTL:       cachedsource.DefaultTTL,
		provisionLimit: rate.Inf,
		provisionBurst: 1,
		clock:          time.Now,
		stats:          stats.NewNoop(),
		logger:         zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithGameSource replaces the chess.com game listing.
func WithGameSource(s games.Source) Option {
	return optionFunc(func(o *options) {
		o.games = s
	})
}

// WithCredentialSource replaces the default ChessKid credential provisioner.
func WithCredentialSource(s credential.Source) Option {
	return optionFunc(func(o *options) {
		o.credentials = s
	})
}

// WithUserAgent sets the User-Agent sent to the game archive API and the
// analysis handshake. The archive API asks for contact details here.
func WithUserAgent(ua string) Option {
	return optionFunc(func(o *options) {
		o.userAgent = ua
	})
}

// WithHTTPClient sets the HTTP client used for every outbound request.
func WithHTTPClient(c *http.Client) Option {
	return optionFunc(func(o *options) {
		o.httpClient = c
	})
}

// WithAnalysisEndpoint overrides the analysis websocket URL.
func WithAnalysisEndpoint(url string) Option {
	return optionFunc(func(o *options) {
		o.endpoint = url
	})
}

// WithTimeout bounds each analysis from connection to completion.
// Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.timeout = d
	})
}

// WithProgress registers a callback invoked with the action of every
// intermediate analysis frame.
func WithProgress(fn func(action string)) Option {
	return optionFunc(func(o *options) {
		o.progress = fn
	})
}

// WithListingCache sets the size and lifetime of the in-memory cache of
// monthly game listings. A size of zero disables caching.
func WithListingCache(size int, ttl time.Duration) Option {
	return optionFunc(func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	})
}

// WithProvisioningRate limits how fast credentials are minted across all
// analyses of this client. Default is unlimited.
func WithProvisioningRate(limit rate.Limit, burst int) Option {
	return optionFunc(func(o *options) {
		o.provisionLimit = limit
		o.provisionBurst = burst
	})
}

// WithClock sets the time source used to resolve the current month.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.clock = now
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

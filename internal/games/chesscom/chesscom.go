// Package chesscom lists games from the chess.com published-data API.
package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/fault"
	"github.com/discochess/gamereview/internal/games"
	"github.com/discochess/gamereview/internal/stats"
)

const (
	// DefaultBaseURL is the published-data API host.
	DefaultBaseURL = "https://api.chess.com"

	// DefaultUserAgent identifies this client to the API, which asks callers
	// to provide contact details.
	DefaultUserAgent = "gamereview (+https://github.com/discochess/gamereview)"

	// DefaultTimeout bounds each archive request.
	DefaultTimeout = 30 * time.Second
)

// Source fetches monthly game archives.
// A Source is safe for concurrent use.
type Source struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
	stats     stats.Collector
}

// Compile-time check that Source implements games.Source.
var _ games.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(s *Source) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(s *Source) { s.userAgent = ua }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(s *Source) { s.stats = c }
}

// New creates a Source with the given options.
func New(opts ...Option) *Source {
	s := &Source{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		logger: zap.NewNop(),
		stats:  stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// archive mirrors the monthly archive payload.
type archive struct {
	Games []struct {
		URL       string `json:"url"`
		PGN       string `json:"pgn"`
		TimeClass string `json:"time_class"`
		EndTime   int64  `json:"end_time"`
		White     player `json:"white"`
		Black     player `json:"black"`
	} `json:"games"`
}

type player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

// Month fetches every game handle finished in period, in upstream order.
func (s *Source) Month(ctx context.Context, handle string, period games.Period) ([]games.Record, error) {
	op := fmt.Sprintf("list games %s %s", handle, period)

	if handle == "" {
		return nil, fault.New(fault.ErrLookup, op, fmt.Errorf("empty player handle"))
	}
	if err := period.Validate(); err != nil {
		return nil, fault.New(fault.ErrLookup, op, err)
	}

	u := fmt.Sprintf("%s/pub/player/%s/games/%s", s.baseURL, url.PathEscape(strings.ToLower(handle)), period)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fault.New(fault.ErrTransport, op, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	s.stats.IncCounter(stats.MetricGameListings, 1)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fault.New(fault.ErrTransport, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fault.Status(fault.ErrLookup, op, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fault.Status(fault.ErrTransport, op, resp.StatusCode)
	}

	var a archive
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fault.New(fault.ErrMalformedResponse, op, err)
	}

	records := make([]games.Record, len(a.Games))
	for i, g := range a.Games {
		records[i] = games.Record{
			Index:     i,
			White:     games.Side(g.White),
			Black:     games.Side(g.Black),
			PGN:       g.PGN,
			URL:       g.URL,
			TimeClass: g.TimeClass,
			EndTime:   time.Unix(g.EndTime, 0).UTC(),
		}
	}

	s.logger.Debug("games listed",
		zap.String("handle", handle),
		zap.Stringer("period", period),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// Package gamereview fetches a player's chess.com games, has one analyzed by
// the chess.com analysis service and condenses the result into per-player
// accuracy figures and move-quality tallies.
//
// Example usage:
//
//	client, err := gamereview.New(
//	    gamereview.WithUserAgent("my-app (me@example.com)"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	summary, err := client.Analyze(ctx, "hikaru", 0, gamereview.Period{Year: 2024, Month: time.March})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %s vs %s\n", summary.Opening, summary.White.Accuracy, summary.Black.Accuracy)
package gamereview

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discochess/gamereview/internal/credential"
	"github.com/discochess/gamereview/internal/credential/chesskid"
	"github.com/discochess/gamereview/internal/games"
	"github.com/discochess/gamereview/internal/games/cachedsource"
	"github.com/discochess/gamereview/internal/games/chesscom"
	"github.com/discochess/gamereview/internal/session"
	"github.com/discochess/gamereview/internal/stats"
)

// Period selects one calendar month. Zero fields mean the current year or month.
type Period = games.Period

// Player is one side of a game as listed by the archive.
type Player struct {
	Username string
	Rating   int
	Result   string
}

// Game is one entry of a monthly listing.
type Game struct {
	// Index is the game's position in its month, starting at 0.
	Index int

	White Player
	Black Player

	PGN       string
	URL       string
	TimeClass string
	EndTime   time.Time
}

// ID returns the numeric game identifier taken from the game URL.
func (g *Game) ID() (string, error) {
	return games.GameID(g.URL)
}

// Players returns the participants' handles.
func (g *Game) Players() Players {
	return Players{White: g.White.Username, Black: g.Black.Username}
}

// Client looks up games and analyzes them.
// A Client is safe for concurrent use by multiple goroutines; every analysis
// provisions its own credential and opens its own connection.
type Client struct {
	games   games.Source
	session *session.Session
	engine  string
	clock   func() time.Time
	stats   stats.Collector
	logger  *zap.Logger
	closed  atomic.Bool
}

// New creates a new Client with the given options.
// If no options are provided, the public chess.com and ChessKid endpoints are used.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.provisionBurst < 1 {
		return nil, fmt.Errorf("provisioning burst must be positive, got %d", cfg.provisionBurst)
	}

	src := cfg.games
	if src == nil {
		chOpts := []chesscom.Option{
			chesscom.WithLogger(cfg.logger.Named("chesscom")),
			chesscom.WithStats(cfg.stats),
		}
		if cfg.userAgent != "" {
			chOpts = append(chOpts, chesscom.WithUserAgent(cfg.userAgent))
		}
		if cfg.httpClient != nil {
			chOpts = append(chOpts, chesscom.WithHTTPClient(cfg.httpClient))
		}
		src = chesscom.New(chOpts...)
	}
	if cfg.cacheSize > 0 {
		src = cachedsource.New(src,
			cachedsource.WithSize(cfg.cacheSize),
			cachedsource.WithTTL(cfg.cacheTTL),
			cachedsource.WithStats(cfg.stats),
		)
	}

	creds := cfg.credentials
	if creds == nil {
		ckOpts := []chesskid.Option{
			chesskid.WithLogger(cfg.logger.Named("chesskid")),
			chesskid.WithStats(cfg.stats),
		}
		if cfg.httpClient != nil {
			ckOpts = append(ckOpts, chesskid.WithHTTPClient(cfg.httpClient))
		}
		creds = chesskid.New(ckOpts...)
	}
	if cfg.provisionLimit != rate.Inf {
		creds = credential.NewLimited(creds, rate.NewLimiter(cfg.provisionLimit, cfg.provisionBurst))
	}

	sessOpts := []session.Option{
		session.WithEndpoint(cfg.endpoint),
		session.WithTimeout(cfg.timeout),
		session.WithLogger(cfg.logger.Named("session")),
		session.WithStats(cfg.stats),
	}
	if cfg.httpClient != nil {
		sessOpts = append(sessOpts, session.WithHTTPClient(cfg.httpClient))
	}
	if cfg.userAgent != "" {
		sessOpts = append(sessOpts, session.WithHeader("User-Agent", cfg.userAgent))
	}
	if cfg.progress != nil {
		progress := cfg.progress
		sessOpts = append(sessOpts, session.WithProgress(func(f session.Frame) { progress(f.Action) }))
	}
	sess := session.New(creds, sessOpts...)

	c := &Client{
		games:   src,
		session: sess,
		engine:  EngineDescription(sess.Engine(), sess.Strength()),
		clock:   cfg.clock,
		stats:   cfg.stats,
		logger:  cfg.logger,
	}

	c.logger.Debug("client initialized",
		zap.String("endpoint", cfg.endpoint),
		zap.Duration("timeout", cfg.timeout),
		zap.Int("cacheSize", cfg.cacheSize),
	)

	return c, nil
}

// ListGames returns the games handle finished in period, in archive order.
// Zero fields of period are filled from the current date.
func (c *Client) ListGames(ctx context.Context, handle string, period Period) ([]Game, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	records, err := c.games.Month(ctx, handle, period.Resolve(c.clock()))
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	out := make([]Game, len(records))
	for i, r := range records {
		out[i] = recordToGame(r)
	}
	return out, nil
}

// Game returns the game at index in handle's listing for period.
// Returns ErrLookup if the index is out of range.
func (c *Client) Game(ctx context.Context, handle string, index int, period Period) (*Game, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	records, err := c.games.Month(ctx, handle, period.Resolve(c.clock()))
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	r, err := games.Find(records, index)
	if err != nil {
		return nil, err
	}
	g := recordToGame(r)
	return &g, nil
}

// Analyze resolves the game at index and analyzes it.
func (c *Client) Analyze(ctx context.Context, handle string, index int, period Period) (*Summary, error) {
	g, err := c.Game(ctx, handle, index, period)
	if err != nil {
		return nil, err
	}
	return c.AnalyzeGame(ctx, g)
}

// AnalyzeGame submits an already resolved game for analysis and summarizes
// the result. The summary is all-or-nothing.
func (c *Client) AnalyzeGame(ctx context.Context, g *Game) (*Summary, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.stats.IncCounter(stats.MetricAnalyses, 1)
	summary, err := c.analyze(ctx, g)
	if err != nil {
		c.stats.IncCounter(stats.MetricAnalysisErrors, 1)
		return nil, err
	}
	return summary, nil
}

func (c *Client) analyze(ctx context.Context, g *Game) (*Summary, error) {
	id, err := g.ID()
	if err != nil {
		return nil, err
	}

	raw, err := c.session.Analyze(ctx, session.Request{
		PGN:      g.PGN,
		GameID:   id,
		GameType: games.GameType(g.URL),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing game %s: %w", id, err)
	}

	summary, err := summarize(raw, g.Players(), c.engine)
	if err != nil {
		return nil, fmt.Errorf("summarizing game %s: %w", id, err)
	}

	c.logger.Debug("game analyzed",
		zap.String("gameId", id),
		zap.String("opening", summary.Opening),
	)
	return summary, nil
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

// DefaultEngine is the engine description used by Summarize. It describes
// the engine and strength a Session requests by default.
var DefaultEngine = EngineDescription(session.DefaultEngine, session.DefaultStrength)

// engineNames maps engine identifiers to display names.
var engineNames = map[string]string{
	session.DefaultEngine: "StockFish 16 NNUE",
}

// EngineDescription renders an engine identifier and strength for display,
// e.g. "StockFish 16 NNUE (Maximum)".
func EngineDescription(engine, strength string) string {
	name, ok := engineNames[strings.ToLower(engine)]
	if !ok {
		name = engine
	}
	return fmt.Sprintf("%s (%s)", name, strength)
}

// recordToGame converts an internal games.Record to a public Game.
func recordToGame(r games.Record) Game {
	return Game{
		Index:     r.Index,
		White:     Player(r.White),
		Black:     Player(r.Black),
		PGN:       r.PGN,
		URL:       r.URL,
		TimeClass: r.TimeClass,
		EndTime:   r.EndTime,
	}
}

// Package session runs one analysis exchange over a websocket connection:
// a single request frame out, then frames in until the completion frame.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/credential"
	"github.com/discochess/gamereview/internal/fault"
	"github.com/discochess/gamereview/internal/stats"
)

const (
	// DefaultEndpoint is the analysis service websocket.
	DefaultEndpoint = "wss://analysis-va.chess.com/"

	// DefaultEngine is the engine requested from the service.
	DefaultEngine = "stockfish16 nnue"

	// DefaultStrength is the analysis depth requested from the service.
	DefaultStrength = "Maximum"

	// DefaultTimeout bounds one exchange from dial to completion frame.
	DefaultTimeout = 2 * time.Minute

	// DefaultReadLimit caps a single inbound frame. Completed analyses of long
	// games run to several megabytes.
	DefaultReadLimit = 32 << 20

	defaultTimeZone = "Europe/Madrid"
	defaultLang     = "en_US"
)

// Request identifies the game to analyze.
type Request struct {
	PGN      string
	GameID   string
	GameType string // "live" or "daily"; empty means "live"
}

// ProgressFunc receives every frame that is not the completion frame.
type ProgressFunc func(Frame)

// Session performs analysis exchanges. Each call to Analyze provisions its own
// credential and opens its own connection, so a Session is safe for
// concurrent use.
type Session struct {
	creds     credential.Source
	endpoint  string
	timeout   time.Duration
	readLimit int64
	client    *http.Client
	header    http.Header
	engine    string
	strength  string
	timeZone  string
	lang      string
	progress  ProgressFunc
	logger    *zap.Logger
	stats     stats.Collector
}

// Option configures a Session.
type Option func(*Session)

// WithEndpoint overrides the websocket endpoint.
func WithEndpoint(url string) Option {
	return func(s *Session) { s.endpoint = url }
}

// WithTimeout bounds each exchange. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithReadLimit sets the maximum size of one inbound frame.
func WithReadLimit(n int64) Option {
	return func(s *Session) { s.readLimit = n }
}

// WithHTTPClient sets the client used for the websocket handshake.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithHeader adds a header to the websocket handshake.
func WithHeader(key, value string) Option {
	return func(s *Session) { s.header.Set(key, value) }
}

// WithEngine sets the requested engine type.
func WithEngine(engine string) Option {
	return func(s *Session) { s.engine = engine }
}

// WithStrength sets the requested analysis strength.
func WithStrength(strength string) Option {
	return func(s *Session) { s.strength = strength }
}

// WithLocale sets the time zone and language reported to the service.
func WithLocale(timeZone, lang string) Option {
	return func(s *Session) {
		s.timeZone = timeZone
		s.lang = lang
	}
}

// WithProgress registers a callback for intermediate frames.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) { s.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(s *Session) { s.stats = c }
}

// New creates a Session that obtains credentials from creds.
func New(creds credential.Source, opts ...Option) *Session {
	s := &Session{
		creds:     creds,
		endpoint:  DefaultEndpoint,
		timeout:   DefaultTimeout,
		readLimit: DefaultReadLimit,
		header:    make(http.Header),
		engine:    DefaultEngine,
		strength:  DefaultStrength,
		timeZone:  defaultTimeZone,
		lang:      defaultLang,
		logger:    zap.NewNop(),
		stats:     stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the requested engine type.
func (s *Session) Engine() string { return s.engine }

// Strength returns the requested analysis strength.
func (s *Session) Strength() string { return s.strength }

// Analyze provisions a fresh credential, sends one analysis request and
// returns the raw completion frame. Frames with any other action are
// discarded. The connection is closed before Analyze returns without waiting
// for the service to acknowledge the close.
func (s *Session) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	log := s.logger.With(zap.String("session", uuid.NewString()), zap.String("gameId", req.GameID))

	cred, err := s.creds.Provision(ctx)
	if err != nil {
		return nil, fmt.Errorf("provisioning credential: %w", err)
	}
	if cred.Token == "" {
		return nil, fault.New(fault.ErrAccountProvisioning, "provision", errors.New("empty token"))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	conn, _, err := websocket.Dial(ctx, s.endpoint, &websocket.DialOptions{
		HTTPClient: s.client,
		HTTPHeader: s.header,
	})
	if err != nil {
		return nil, s.fail(ctx, "dial", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(s.readLimit)

	s.stats.AddGauge(stats.MetricOpenSessions, 1)
	defer s.stats.AddGauge(stats.MetricOpenSessions, -1)

	if err := wsjson.Write(ctx, conn, s.requestFrame(req, cred)); err != nil {
		return nil, s.fail(ctx, "send request", err)
	}
	log.Debug("analysis requested")

	var discarded int64
	for {
		frame, err := s.next(ctx, conn)
		if err != nil {
			return nil, err
		}
		if frame.Action == CompletionAction {
			conn.CloseNow()
			s.stats.IncCounter(stats.MetricFramesDiscarded, discarded)
			s.stats.ObserveHistogram(stats.MetricAnalysisSeconds, time.Since(start).Seconds())
			log.Debug("analysis complete",
				zap.Int64("discarded", discarded),
				zap.Duration("elapsed", time.Since(start)),
			)
			return frame.Raw, nil
		}

		discarded++
		if s.progress != nil {
			s.progress(frame)
		}
	}
}

// next reads one frame and decodes its action tag.
func (s *Session) next(ctx context.Context, conn *websocket.Conn) (Frame, error) {
	typ, data, err := conn.Read(ctx)
	if err != nil {
		return Frame{}, s.fail(ctx, "receive", err)
	}
	if typ != websocket.MessageText {
		return Frame{}, fault.New(fault.ErrProtocol, "receive", fmt.Errorf("unexpected %v frame", typ))
	}

	var head actionHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return Frame{}, fault.New(fault.ErrProtocol, "receive", err)
	}
	if head.Action == nil {
		return Frame{}, fault.New(fault.ErrProtocol, "receive", errors.New(`frame has no "action"`))
	}
	return Frame{Action: *head.Action, Raw: data}, nil
}

func (s *Session) requestFrame(req Request, cred credential.Credential) requestFrame {
	gameType := req.GameType
	if gameType == "" {
		gameType = "live"
	}
	return requestFrame{
		Action: RequestAction,
		Game:   gamePayload{PGN: req.PGN},
		Options: requestOptions{
			Caps2:       true,
			GetNullMove: true,
			EngineType:  s.engine,
			Source: requestSource{
				GameID:       req.GameID,
				GameType:     gameType,
				Token:        cred.Token,
				Client:       "web",
				UserTimeZone: s.timeZone,
			},
			TEP: tepOptions{
				Lang:             s.lang,
				SpeechV2:         true,
				UserColor:        "white",
				ClassificationV3: true,
			},
			Strength: s.strength,
		},
	}
}

// fail classifies a connection error. An expired deadline is a timeout; a
// canceled context is returned as is so callers can tell it apart.
func (s *Session) fail(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fault.New(fault.ErrAnalysisTimeout, op, ctx.Err())
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return fault.New(fault.ErrTransport, op, err)
	}
}

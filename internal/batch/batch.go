// Package batch analyzes every game of a month with bounded parallelism.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/digest"
	"github.com/discochess/gamereview/internal/sink"
)

// DefaultParallel is the default number of concurrent analyses.
const DefaultParallel = 2

// Analyzer lists and analyzes games. *gamereview.Client implements it.
type Analyzer interface {
	ListGames(ctx context.Context, handle string, period gamereview.Period) ([]gamereview.Game, error)
	AnalyzeGame(ctx context.Context, g *gamereview.Game) (*gamereview.Summary, error)
}

// Compile-time check that the client satisfies Analyzer.
var _ Analyzer = (*gamereview.Client)(nil)

// Report is the outcome for one game. Exactly one of Summary and Err is set
// for games that were attempted.
type Report struct {
	Game    gamereview.Game
	Summary *gamereview.Summary
	Err     error
}

// Result holds every report of a run, ordered by game index.
type Result struct {
	Reports  []Report
	Analyzed int
	Failed   int
	Stored   int
	Elapsed  time.Duration

	// Digest condenses the successful reports from the player's side.
	Digest *digest.Digest
}

// Summaries returns the summaries of the successful reports.
func (r *Result) Summaries() []*gamereview.Summary {
	out := make([]*gamereview.Summary, 0, len(r.Reports))
	for _, rep := range r.Reports {
		if rep.Summary != nil {
			out = append(out, rep.Summary)
		}
	}
	return out
}

// Runner analyzes a month of games.
type Runner struct {
	analyzer  Analyzer
	sink      sink.Sink
	parallel  int
	keepGoing bool
	clock     func() time.Time
	progress  ProgressFunc
	logger    *zap.Logger
}

// Option configures the Runner.
type Option func(*Runner)

// WithSink stores each summary as a JSON document.
func WithSink(s sink.Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithParallel sets the number of concurrent analyses.
func WithParallel(n int) Option {
	return func(r *Runner) { r.parallel = n }
}

// WithKeepGoing records failed games and continues instead of stopping the
// run on the first failure.
func WithKeepGoing(keep bool) Option {
	return func(r *Runner) { r.keepGoing = keep }
}

// WithClock sets the time source used to resolve the current month.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.clock = now }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner.
func New(a Analyzer, opts ...Option) *Runner {
	r := &Runner{
		analyzer: a,
		parallel: DefaultParallel,
		clock:    time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallel < 1 {
		r.parallel = 1
	}
	return r
}

// Run lists handle's games for period and analyzes all of them.
//
// Without keep-going, the first failure cancels the remaining analyses and
// is returned together with the partial result.
func (r *Runner) Run(ctx context.Context, handle string, period gamereview.Period) (*Result, error) {
	start := time.Now()
	period = period.Resolve(r.clock())

	list, err := r.analyzer.ListGames(ctx, handle, period)
	if err != nil {
		r.report(Progress{Phase: "error", Handle: handle, StartTime: start, Error: err})
		return nil, err
	}

	res := &Result{Reports: make([]Report, len(list))}
	r.report(Progress{Phase: "list", Handle: handle, Total: len(list), StartTime: start})

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)

	for i := range list {
		game := list[i]
		res.Reports[i].Game = game

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}

			summary, stored, err := r.one(gctx, handle, period, &game)

			mu.Lock()
			res.Reports[i].Summary = summary
			res.Reports[i].Err = err
			if err != nil {
				res.Failed++
			} else {
				res.Analyzed++
			}
			if stored {
				res.Stored++
			}
			p := Progress{
				Phase:     "analyze",
				Handle:    handle,
				Total:     len(list),
				Analyzed:  res.Analyzed,
				Failed:    res.Failed,
				Stored:    res.Stored,
				StartTime: start,
			}
			r.report(p)
			mu.Unlock()

			if err != nil {
				r.logger.Warn("game failed",
					zap.Int("index", game.Index),
					zap.String("url", game.URL),
					zap.Error(err),
				)
				if !r.keepGoing {
					return fmt.Errorf("game %d: %w", game.Index, err)
				}
			}
			return nil
		})
	}

	err = g.Wait()
	res.Digest = digest.Of(handle, res.Summaries())
	if err == nil && r.sink != nil {
		err = r.storeDigest(ctx, handle, period, res.Digest)
	}
	res.Elapsed = time.Since(start)

	if err != nil {
		r.report(Progress{Phase: "error", Handle: handle, Total: len(list), StartTime: start, Error: err})
		return res, err
	}

	r.report(Progress{
		Phase:     "done",
		Handle:    handle,
		Total:     len(list),
		Analyzed:  res.Analyzed,
		Failed:    res.Failed,
		Stored:    res.Stored,
		StartTime: start,
	})
	return res, nil
}

// one analyzes a single game and stores its summary if a sink is set.
func (r *Runner) one(ctx context.Context, handle string, period gamereview.Period, game *gamereview.Game) (*gamereview.Summary, bool, error) {
	summary, err := r.analyzer.AnalyzeGame(ctx, game)
	if err != nil {
		return nil, false, err
	}
	if r.sink == nil {
		return summary, false, nil
	}

	id, err := game.ID()
	if err != nil {
		return nil, false, err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("encoding summary: %w", err)
	}
	name := sink.ReportName(handle, period.Year, period.Month, game.Index, id)
	if err := r.sink.Put(ctx, name, data); err != nil {
		return nil, false, fmt.Errorf("storing %s: %w", name, err)
	}
	return summary, true, nil
}

func (r *Runner) storeDigest(ctx context.Context, handle string, period gamereview.Period, d *digest.Digest) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding digest: %w", err)
	}
	name := sink.DigestName(handle, period.Year, period.Month)
	if err := r.sink.Put(ctx, name, data); err != nil {
		return fmt.Errorf("storing %s: %w", name, err)
	}
	return nil
}

func (r *Runner) report(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}

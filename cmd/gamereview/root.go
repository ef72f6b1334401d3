package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/session"
	"github.com/discochess/gamereview/internal/stats"
	statslogger "github.com/discochess/gamereview/internal/stats/logger"
	statsprom "github.com/discochess/gamereview/internal/stats/prometheus"
)

var (
	// Global flags.
	verbose     bool
	timeout     time.Duration
	userAgent   string
	metricsAddr string

	// Period flags shared by the game commands.
	year  int
	month int
)

var rootCmd = &cobra.Command{
	Use:   "gamereview",
	Short: "Engine accuracy reports for chess.com games",
	Long: `Gamereview lists a chess.com player's games for a month and has them
analyzed by the chess.com analysis service, reporting each player's
accuracy per game phase and how their moves were classified.

Examples:
  # List this month's games
  gamereview games hikaru

  # Analyze the third game of March 2024
  gamereview analyze hikaru 2 --year 2024 --month 3

  # Analyze a whole month and store compressed reports in S3
  gamereview batch hikaru --month 3 --out s3://my-bucket/reviews --codec zstd`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", session.DefaultTimeout, "bound on each analysis (0 waits indefinitely)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User-Agent for chess.com requests (include contact details)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

// addPeriodFlags registers --year and --month on cmd.
func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&year, "year", 0, "year of the archive (default current year)")
	cmd.Flags().IntVar(&month, "month", 0, "month of the archive, 1-12 (default current month)")
}

// period returns the month selected by the period flags.
func period() gamereview.Period {
	return gamereview.Period{Year: year, Month: time.Month(month)}
}

// signalContext returns a context canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newLogger returns a development logger when verbose, otherwise a no-op one.
func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// env bundles what every command needs: a client, its logger and a metrics
// server if one was requested.
type env struct {
	client  *gamereview.Client
	logger  *zap.Logger
	metrics *http.Server
}

// newEnv builds a client from the global flags. Close must be called.
func newEnv(extra ...gamereview.Option) (*env, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	var collector stats.Collector = stats.NewNoop()
	var metrics *http.Server
	switch {
	case metricsAddr != "":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = statsprom.New(reg)
		metrics = serveMetrics(metricsAddr, reg, logger)
	case verbose:
		collector = statslogger.New(logger.Named("stats"))
	}

	opts := []gamereview.Option{
		gamereview.WithTimeout(timeout),
		gamereview.WithLogger(logger),
		gamereview.WithStats(collector),
	}
	if userAgent != "" {
		opts = append(opts, gamereview.WithUserAgent(userAgent))
	}

	client, err := gamereview.New(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return &env{client: client, logger: logger, metrics: metrics}, nil
}

func (e *env) Close() {
	e.client.Close()
	if e.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.metrics.Shutdown(ctx)
	}
	e.logger.Sync()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

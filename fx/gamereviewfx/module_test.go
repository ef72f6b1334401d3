package gamereviewfx

import (
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/stats"
)

func TestModule(t *testing.T) {
	var client *gamereview.Client
	app := fxtest.New(t,
		fx.Supply(Config{UserAgent: "test (ops@example.com)", Timeout: time.Minute}),
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&client),
	)
	app.RequireStart()

	if client == nil {
		t.Fatal("client not provided")
	}

	app.RequireStop()
	if err := client.Close(); err != gamereview.ErrClosed {
		t.Errorf("Close() after stop = %v, want ErrClosed", err)
	}
}

func TestModule_UsesProvidedCollector(t *testing.T) {
	var client *gamereview.Client
	app := fxtest.New(t,
		fx.Supply(Config{}),
		fx.Supply(zap.NewNop()),
		fx.Provide(func() stats.Collector { return stats.NewNoop() }),
		Module,
		fx.Populate(&client),
	)
	app.RequireStart()
	app.RequireStop()
}

func TestModule_InvalidConfig(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(Config{ProvisioningRate: 1, ProvisioningBurst: -1}),
		fx.Supply(zap.NewNop()),
		Module,
		fx.Invoke(func(*gamereview.Client) {}),
	)
	// A negative burst falls back to 1.
	if err := app.Err(); err != nil {
		t.Errorf("app.Err() = %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"zero", Config{}, 2},
		{"all", Config{
			UserAgent:        "ua",
			AnalysisEndpoint: "ws://localhost/",
			Timeout:          time.Second,
			CacheSize:        -1,
			ProvisioningRate: 0.5,
		}, 7},
		{"ttl only", Config{CacheTTL: time.Hour}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clientOptions(tt.cfg, stats.NewNoop(), zap.NewNop())
			if len(got) != tt.want {
				t.Errorf("clientOptions() returned %d options, want %d", len(got), tt.want)
			}
		})
	}
}

package credential

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimited_Delegates(t *testing.T) {
	var calls atomic.Int32
	src := SourceFunc(func(ctx context.Context) (Credential, error) {
		calls.Add(1)
		return Credential{Token: "tok", SessionID: "sess"}, nil
	})

	l := NewLimited(src, rate.NewLimiter(rate.Inf, 1))
	for i := 0; i < 3; i++ {
		cred, err := l.Provision(context.Background())
		if err != nil {
			t.Fatalf("Provision() error = %v", err)
		}
		if cred.Token != "tok" {
			t.Errorf("Token = %q, want %q", cred.Token, "tok")
		}
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("underlying calls = %d, want 3", got)
	}
}

func TestLimited_ContextCanceled(t *testing.T) {
	src := SourceFunc(func(ctx context.Context) (Credential, error) {
		t.Fatal("underlying source should not be called")
		return Credential{}, nil
	})

	// One token per hour, burst already spent below.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLimited(src, limiter).Provision(ctx)
	if err == nil {
		t.Fatal("Provision() error = nil, want error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Provision() error = %v, want context.Canceled", err)
	}
}

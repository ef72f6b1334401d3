// Package credential defines how analysis credentials are obtained.
//
// A Credential is single-use: callers request a fresh one for every analysis
// and never cache it. The issuing service is the only authority on validity.
package credential

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Credential is a short-lived analysis token and the session that issued it.
type Credential struct {
	Token     string
	SessionID string
}

// Source mints analysis credentials.
type Source interface {
	Provision(ctx context.Context) (Credential, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Credential, error)

// Compile-time check that SourceFunc implements Source.
var _ Source = SourceFunc(nil)

func (f SourceFunc) Provision(ctx context.Context) (Credential, error) { return f(ctx) }

// Limited throttles calls to an underlying Source.
type Limited struct {
	src     Source
	limiter *rate.Limiter
}

// Compile-time check that Limited implements Source.
var _ Source = (*Limited)(nil)

// NewLimited wraps src so that at most limiter's rate of credentials is minted.
func NewLimited(src Source, limiter *rate.Limiter) *Limited {
	return &Limited{src: src, limiter: limiter}
}

// Provision waits for the limiter, then delegates to the underlying Source.
func (l *Limited) Provision(ctx context.Context) (Credential, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Credential{}, fmt.Errorf("waiting for provisioning slot: %w", err)
	}
	return l.src.Provision(ctx)
}

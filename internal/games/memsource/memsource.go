// Package memsource provides an in-memory games.Source for tests and demos.
package memsource

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/discochess/gamereview/internal/fault"
	"github.com/discochess/gamereview/internal/games"
)

// Compile-time check that Source implements games.Source.
var _ games.Source = (*Source)(nil)

// Source serves listings registered with SetMonth.
type Source struct {
	mu     sync.RWMutex
	months map[string][]games.Record
}

// New creates an empty in-memory source.
func New() *Source {
	return &Source{months: make(map[string][]games.Record)}
}

// SetMonth registers the listing for handle and period. Indices are
// reassigned from the slice order; the slice is copied.
func (s *Source) SetMonth(handle string, period games.Period, records []games.Record) {
	copied := slices.Clone(records)
	for i := range copied {
		copied[i].Index = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.months[key(handle, period)] = copied
}

// Month returns the registered listing, or ErrLookup if none exists.
func (s *Source) Month(ctx context.Context, handle string, period games.Period) ([]games.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.months[key(handle, period)]
	if !ok {
		return nil, fault.New(fault.ErrLookup, "list games "+handle+" "+period.String(), nil)
	}
	return slices.Clone(records), nil
}

func key(handle string, period games.Period) string {
	return strings.ToLower(handle) + "@" + period.String()
}

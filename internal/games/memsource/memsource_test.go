package memsource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/discochess/gamereview/internal/fault"
	"github.com/discochess/gamereview/internal/games"
)

func TestSource(t *testing.T) {
	s := New()
	p := games.Period{Year: 2024, Month: time.March}
	in := []games.Record{
		{Index: 7, URL: "https://www.chess.com/game/live/1"},
		{Index: 7, URL: "https://www.chess.com/game/live/2"},
	}
	s.SetMonth("Alice", p, in)

	got, err := s.Month(context.Background(), "alice", p)
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Errorf("Month() = %+v, want reindexed records", got)
	}
	if in[0].Index != 7 {
		t.Error("SetMonth() modified the caller's slice")
	}

	got[0].URL = "mutated"
	again, _ := s.Month(context.Background(), "alice", p)
	if again[0].URL == "mutated" {
		t.Error("Month() returned the stored slice")
	}
}

func TestSource_Unknown(t *testing.T) {
	s := New()
	s.SetMonth("alice", games.Period{Year: 2024, Month: time.March}, nil)

	tests := []struct {
		handle string
		period games.Period
	}{
		{"bob", games.Period{Year: 2024, Month: time.March}},
		{"alice", games.Period{Year: 2024, Month: time.April}},
	}
	for _, tt := range tests {
		if _, err := s.Month(context.Background(), tt.handle, tt.period); !errors.Is(err, fault.ErrLookup) {
			t.Errorf("Month(%s, %s) error = %v, want ErrLookup", tt.handle, tt.period, err)
		}
	}
}

package games

import (
	"errors"
	"testing"
	"time"

	"github.com/discochess/gamereview/internal/fault"
)

func TestGameID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.chess.com/game/live/12345678", "12345678", false},
		{"https://www.chess.com/game/daily/987654", "987654", false},
		{"https://www.chess.com/game/live/12345678/", "12345678", false},
		{"https://www.chess.com/game/live/12345678?tab=review", "12345678", false},
		{"https://www.chess.com/game/live/", "", true},
		{"https://www.chess.com/game/live/abc123", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := GameID(tt.url)
			if tt.wantErr {
				if !errors.Is(err, fault.ErrMalformedResponse) {
					t.Errorf("GameID() error = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GameID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GameID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGameType(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.chess.com/game/live/1", "live"},
		{"https://www.chess.com/game/daily/1", "daily"},
		{"https://www.chess.com/game/1", "live"},
	}
	for _, tt := range tests {
		if got := GameType(tt.url); got != tt.want {
			t.Errorf("GameType(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	records := []Record{{Index: 0}, {Index: 1}, {Index: 2}}

	for _, idx := range []int{0, 1, 2} {
		r, err := Find(records, idx)
		if err != nil {
			t.Fatalf("Find(%d) error = %v", idx, err)
		}
		if r.Index != idx {
			t.Errorf("Find(%d).Index = %d", idx, r.Index)
		}
	}

	for _, idx := range []int{-1, 3, 100} {
		if _, err := Find(records, idx); !errors.Is(err, fault.ErrLookup) {
			t.Errorf("Find(%d) error = %v, want ErrLookup", idx, err)
		}
	}
}

func TestPeriod_Resolve(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   Period
		want Period
	}{
		{"zero", Period{}, Period{2024, time.March}},
		{"year only", Period{Year: 2022}, Period{2022, time.March}},
		{"month only", Period{Month: time.July}, Period{2024, time.July}},
		{"full", Period{2021, time.January}, Period{2021, time.January}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Resolve(now); got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPeriod_Validate(t *testing.T) {
	if err := (Period{2024, time.December}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (Period{2024, 13}).Validate(); err == nil {
		t.Error("Validate() month 13 error = nil")
	}
	if err := (Period{0, time.May}).Validate(); err == nil {
		t.Error("Validate() year 0 error = nil")
	}
}

func TestPeriod_String(t *testing.T) {
	if got := (Period{2024, time.March}).String(); got != "2024/03" {
		t.Errorf("String() = %q, want %q", got, "2024/03")
	}
}

func TestReadHeaders(t *testing.T) {
	pgn := `[Event "Live Chess"]
[Site "Chess.com"]
[White "alice"]
[Black "bob"]
[Result "1-0"]
[ECO "C50"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 1-0`

	h, err := ReadHeaders(pgn)
	if err != nil {
		t.Fatalf("ReadHeaders() error = %v", err)
	}
	if h.Result != "1-0" {
		t.Errorf("Result = %q, want %q", h.Result, "1-0")
	}
	if h.ECO != "C50" {
		t.Errorf("ECO = %q, want %q", h.ECO, "C50")
	}
	if h.Plies != 6 {
		t.Errorf("Plies = %d, want 6", h.Plies)
	}
}

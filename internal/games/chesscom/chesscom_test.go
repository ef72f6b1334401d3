package chesscom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/discochess/gamereview/internal/fault"
	"github.com/discochess/gamereview/internal/games"
)

const archiveJSON = `{"games":[
{"url":"https://www.chess.com/game/live/11111111","pgn":"[White \"Alice\"]\n\n1. e4 e5 *","time_class":"blitz","end_time":1709251200,
 "white":{"username":"Alice","rating":1500,"result":"win"},"black":{"username":"Bob","rating":1480,"result":"resigned"}},
{"url":"https://www.chess.com/game/daily/22222222","pgn":"1. d4 d5 *","time_class":"daily","end_time":1709337600,
 "white":{"username":"Carol","rating":1200,"result":"timeout"},"black":{"username":"Alice","rating":1510,"result":"win"}},
{"url":"https://www.chess.com/game/live/33333333","pgn":"1. c4 *","time_class":"rapid","end_time":1709424000,
 "white":{"username":"Alice","rating":1505,"result":"agreed"},"black":{"username":"Dan","rating":1600,"result":"agreed"}}
]}`

func newTestSource(t *testing.T, h http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithUserAgent("test-agent"))
}

func TestSource_Month(t *testing.T) {
	var gotPath, gotAgent string
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, archiveJSON)
	})

	records, err := s.Month(context.Background(), "Alice", games.Period{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}

	if gotPath != "/pub/player/alice/games/2024/03" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAgent != "test-agent" {
		t.Errorf("User-Agent = %q, want %q", gotAgent, "test-agent")
	}

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for i, r := range records {
		if r.Index != i {
			t.Errorf("records[%d].Index = %d", i, r.Index)
		}
		if r.White.Username == "" || r.Black.Username == "" {
			t.Errorf("records[%d] has empty participant: %+v", i, r)
		}
	}

	second := records[1]
	if second.White.Username != "Carol" || second.Black.Rating != 1510 {
		t.Errorf("records[1] sides = %+v / %+v", second.White, second.Black)
	}
	if id, err := second.ID(); err != nil || id != "22222222" {
		t.Errorf("records[1].ID() = %q, %v", id, err)
	}
	if second.Type() != "daily" {
		t.Errorf("records[1].Type() = %q, want daily", second.Type())
	}
	if !second.EndTime.Equal(time.Unix(1709337600, 0)) {
		t.Errorf("records[1].EndTime = %v", second.EndTime)
	}
}

func TestSource_Month_Empty(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"games":[]}`)
	})

	records, err := s.Month(context.Background(), "alice", games.Period{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestSource_Month_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		handle  string
		period  games.Period
		wantErr error
	}{
		{"unknown player", http.StatusNotFound, `{"code":0}`, "ghost", games.Period{Year: 2024, Month: 3}, fault.ErrLookup},
		{"server error", http.StatusInternalServerError, ``, "alice", games.Period{Year: 2024, Month: 3}, fault.ErrTransport},
		{"rate limited", http.StatusTooManyRequests, ``, "alice", games.Period{Year: 2024, Month: 3}, fault.ErrTransport},
		{"bad json", http.StatusOK, `{"games":`, "alice", games.Period{Year: 2024, Month: 3}, fault.ErrMalformedResponse},
		{"bad month", http.StatusOK, `{}`, "alice", games.Period{Year: 2024, Month: 13}, fault.ErrLookup},
		{"empty handle", http.StatusOK, `{}`, "", games.Period{Year: 2024, Month: 3}, fault.ErrLookup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := s.Month(context.Background(), tt.handle, tt.period)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Month() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

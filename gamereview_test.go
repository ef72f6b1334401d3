package gamereview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/discochess/gamereview/internal/credential"
	"github.com/discochess/gamereview/internal/games"
	"github.com/discochess/gamereview/internal/games/memsource"
)

const testPGN = `[Event "Live Chess"]
[White "alice"]
[Black "bob"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 1-0`

var march = Period{Year: 2024, Month: time.March}

func testGames() *memsource.Source {
	src := memsource.New()
	src.SetMonth("alice", march, []games.Record{
		{
			White: games.Side{Username: "alice", Rating: 1850, Result: "win"},
			Black: games.Side{Username: "bob", Rating: 1420, Result: "resigned"},
			PGN:   testPGN, URL: "https://www.chess.com/game/live/1001", TimeClass: "blitz",
		},
		{
			White: games.Side{Username: "carol", Rating: 1700, Result: "win"},
			Black: games.Side{Username: "alice", Rating: 1840, Result: "checkmated"},
			PGN:   testPGN, URL: "https://www.chess.com/game/daily/1002", TimeClass: "daily",
		},
	})
	return src
}

// analysisServer answers every request with n progress frames followed by
// the completion frame. The request frames are recorded.
type analysisServer struct {
	url      string
	mu       sync.Mutex
	requests []map[string]any
}

func newAnalysisServer(t *testing.T, progress int) *analysisServer {
	t.Helper()
	as := &analysisServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("Accept() error = %v", err)
			return
		}
		defer c.CloseNow()

		ctx := r.Context()
		var req map[string]any
		if err := wsjson.Read(ctx, c, &req); err != nil {
			t.Errorf("reading request frame: %v", err)
			return
		}
		as.mu.Lock()
		as.requests = append(as.requests, req)
		as.mu.Unlock()

		for i := 0; i < progress; i++ {
			c.Write(ctx, websocket.MessageText, []byte(fmt.Sprintf(`{"action":"progress","data":{"ply":%d}}`, i)))
		}
		c.Write(ctx, websocket.MessageText, []byte(completionFrame))
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	as.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return as
}

func countingCreds(n *atomic.Int64) credential.Source {
	return credential.SourceFunc(func(ctx context.Context) (credential.Credential, error) {
		id := n.Add(1)
		return credential.Credential{Token: fmt.Sprintf("tok-%d", id)}, nil
	})
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	var n atomic.Int64
	base := []Option{
		WithGameSource(testGames()),
		WithCredentialSource(countingCreds(&n)),
		WithTimeout(5 * time.Second),
	}
	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_ListGames(t *testing.T) {
	c := newTestClient(t)

	got, err := c.ListGames(context.Background(), "alice", march)
	if err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListGames() returned %d games, want 2", len(got))
	}
	for i, g := range got {
		if g.Index != i {
			t.Errorf("game %d has Index %d", i, g.Index)
		}
	}
	if got[0].White.Username != "alice" || got[0].Black.Rating != 1420 {
		t.Errorf("unexpected first game %+v", got[0])
	}
}

func TestClient_ListGamesResolvesCurrentMonth(t *testing.T) {
	now := time.Date(2024, time.March, 17, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, WithClock(func() time.Time { return now }))

	got, err := c.ListGames(context.Background(), "alice", Period{})
	if err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListGames() returned %d games, want 2", len(got))
	}
}

func TestClient_ListGamesUnknownPlayer(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.ListGames(context.Background(), "nobody", march); !errors.Is(err, ErrLookup) {
		t.Errorf("ListGames() error = %v, want ErrLookup", err)
	}
}

func TestClient_Game(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	g, err := c.Game(ctx, "alice", 1, march)
	if err != nil {
		t.Fatalf("Game() error = %v", err)
	}
	if id, _ := g.ID(); id != "1002" {
		t.Errorf("ID() = %q, want 1002", id)
	}
	if p := g.Players(); p.White != "carol" || p.Black != "alice" {
		t.Errorf("Players() = %+v", p)
	}

	for _, idx := range []int{-1, 2, 50} {
		if _, err := c.Game(ctx, "alice", idx, march); !errors.Is(err, ErrLookup) {
			t.Errorf("Game(%d) error = %v, want ErrLookup", idx, err)
		}
	}
}

func TestClient_Analyze(t *testing.T) {
	as := newAnalysisServer(t, 3)
	var actions []string
	c := newTestClient(t,
		WithAnalysisEndpoint(as.url),
		WithProgress(func(action string) { actions = append(actions, action) }),
	)

	got, err := c.Analyze(context.Background(), "alice", 0, march)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Opening != "Italian Game" {
		t.Errorf("Opening = %q", got.Opening)
	}
	if got.White.Username != "alice" || got.Black.Username != "bob" {
		t.Errorf("usernames = %q, %q", got.White.Username, got.Black.Username)
	}
	if got.White.Accuracy != "97.4" {
		t.Errorf("white Accuracy = %q, want 97.4", got.White.Accuracy)
	}
	if got.Engine != DefaultEngine {
		t.Errorf("Engine = %q, want %q", got.Engine, DefaultEngine)
	}
	if len(actions) != 3 {
		t.Errorf("progress saw %d frames, want 3", len(actions))
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	if len(as.requests) != 1 {
		t.Fatalf("server saw %d requests, want 1", len(as.requests))
	}
	if as.requests[0]["action"] != "gameAnalysis" {
		t.Errorf("request action = %v", as.requests[0]["action"])
	}
}

func TestClient_AnalyzeDailyGame(t *testing.T) {
	as := newAnalysisServer(t, 0)
	c := newTestClient(t, WithAnalysisEndpoint(as.url))

	if _, err := c.Analyze(context.Background(), "alice", 1, march); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	opts, _ := as.requests[0]["options"].(map[string]any)
	src, _ := opts["source"].(map[string]any)
	if src["gameId"] != "1002" || src["gameType"] != "daily" {
		t.Errorf("source = %v", src)
	}
}

func TestClient_AnalyzeBadIndexDoesNotConnect(t *testing.T) {
	as := newAnalysisServer(t, 0)
	var provisioned atomic.Int64
	c := newTestClient(t,
		WithAnalysisEndpoint(as.url),
		WithCredentialSource(countingCreds(&provisioned)),
	)

	if _, err := c.Analyze(context.Background(), "alice", 7, march); !errors.Is(err, ErrLookup) {
		t.Fatalf("Analyze() error = %v, want ErrLookup", err)
	}
	if provisioned.Load() != 0 {
		t.Errorf("provisioned %d credentials, want 0", provisioned.Load())
	}
}

func TestClient_AnalyzeProvisioningFailure(t *testing.T) {
	failing := credential.SourceFunc(func(ctx context.Context) (credential.Credential, error) {
		return credential.Credential{}, fmt.Errorf("signup refused: %w", ErrAccountProvisioning)
	})
	c := newTestClient(t,
		WithAnalysisEndpoint("ws://127.0.0.1:1/"),
		WithCredentialSource(failing),
	)

	if _, err := c.Analyze(context.Background(), "alice", 0, march); !errors.Is(err, ErrAccountProvisioning) {
		t.Errorf("Analyze() error = %v, want ErrAccountProvisioning", err)
	}
}

func TestClient_ConcurrentAnalyses(t *testing.T) {
	as := newAnalysisServer(t, 2)
	var provisioned atomic.Int64
	c := newTestClient(t,
		WithAnalysisEndpoint(as.url),
		WithCredentialSource(countingCreds(&provisioned)),
	)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Analyze(context.Background(), "alice", i%2, march)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Analyze() error = %v", err)
		}
	}
	if provisioned.Load() != n {
		t.Errorf("provisioned %d credentials, want %d", provisioned.Load(), n)
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	tokens := make(map[any]bool)
	for _, req := range as.requests {
		opts, _ := req["options"].(map[string]any)
		src, _ := opts["source"].(map[string]any)
		tokens[src["token"]] = true
	}
	if len(tokens) != n {
		t.Errorf("server saw %d distinct tokens, want %d", len(tokens), n)
	}
}

func TestClient_Closed(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := c.ListGames(ctx, "alice", march); !errors.Is(err, ErrClosed) {
		t.Errorf("ListGames() error = %v, want ErrClosed", err)
	}
	if _, err := c.Analyze(ctx, "alice", 0, march); !errors.Is(err, ErrClosed) {
		t.Errorf("Analyze() error = %v, want ErrClosed", err)
	}
}

func TestNew_InvalidProvisioningBurst(t *testing.T) {
	if _, err := New(WithProvisioningRate(1, 0)); err == nil {
		t.Error("New() with zero burst should fail")
	}
}

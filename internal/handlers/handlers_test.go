package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
	"github.com/basestats/stats-engine/internal/store"
)

// MockIngestQueue records enqueued events.
type MockIngestQueue struct {
	mu     sync.Mutex
	full   bool
	events []models.GameRecordCreated
}

func (m *MockIngestQueue) Enqueue(event models.GameRecordCreated) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.events = append(m.events, event)
	return true
}

func (m *MockIngestQueue) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type testServer struct {
	router http.Handler
	queue  *MockIngestQueue
	store  *store.MemoryStore
}

func newTestServer(t *testing.T, routerCfg RouterConfig) *testServer {
	t.Helper()
	logger := zap.NewNop()
	sugar := logger.Sugar()
	mem := store.NewMemoryStore()
	queue := &MockIngestQueue{}

	h := New(Config{
		WorkerPool:    queue,
		Logger:        logger,
		Dependencies:  map[string]Pinger{"store": mem},
		Aggregation:   logic.NewAggregationService(mem, sugar, logic.DefaultRetryConfig()),
		Rollup:        logic.NewRollupService(mem, sugar),
		AdvancedStats: logic.NewAdvancedStatsService(mem, sugar),
		Ranking:       logic.NewRankingService(mem, sugar, logic.RankingConfig{}),
	})
	return &testServer{router: NewRouter(h, routerCfg), queue: queue, store: mem}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const sampleGame = `{"subject":{"kind":"user","id":"u1"},"date":"2024-06-15","gameType":"official",
"atBats":[{"result":"単打","position":"中"},{"result":"四球"},{"result":"空振り三振"}]}`

func TestIngestGames(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		queueFull  bool
		wantStatus int
		wantQueued int
	}{
		{
			name:       "Single object",
			body:       sampleGame,
			wantStatus: http.StatusAccepted,
			wantQueued: 1,
		},
		{
			name:       "Array",
			body:       "[" + sampleGame + "," + sampleGame + "]",
			wantStatus: http.StatusAccepted,
			wantQueued: 2,
		},
		{
			name:       "Newline delimited",
			body:       strings.ReplaceAll(sampleGame, "\n", "") + "\n" + strings.ReplaceAll(sampleGame, "\n", ""),
			wantStatus: http.StatusAccepted,
			wantQueued: 2,
		},
		{
			name:       "Invalid record rejects the whole batch",
			body:       "[" + sampleGame + `,{"subject":{"kind":"user","id":"u1"},"date":"not-a-date"}]`,
			wantStatus: http.StatusBadRequest,
			wantQueued: 0,
		},
		{
			name:       "Missing subject",
			body:       `{"date":"2024-06-15"}`,
			wantStatus: http.StatusBadRequest,
			wantQueued: 0,
		},
		{
			name:       "Malformed JSON",
			body:       `{"subject":`,
			wantStatus: http.StatusBadRequest,
			wantQueued: 0,
		},
		{
			name:       "Empty body",
			body:       "   ",
			wantStatus: http.StatusBadRequest,
			wantQueued: 0,
		},
		{
			name:       "Oversized payload",
			body:       strings.Repeat("a", MaxBodySize+1),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantQueued: 0,
		},
		{
			name:       "Queue full",
			body:       sampleGame,
			queueFull:  true,
			wantStatus: http.StatusServiceUnavailable,
			wantQueued: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, RouterConfig{})
			srv.queue.full = tt.queueFull

			w := srv.do(http.MethodPost, "/api/v1/games", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if queued := srv.queue.QueueDepth(); queued != tt.wantQueued {
				t.Errorf("queued = %d, want %d", queued, tt.wantQueued)
			}
		})
	}
}

func TestIngestGamesAssignsStableIDs(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	srv.do(http.MethodPost, "/api/v1/games", sampleGame)
	srv.do(http.MethodPost, "/api/v1/games", sampleGame)

	if len(srv.queue.events) != 2 {
		t.Fatalf("queued %d events, want 2", len(srv.queue.events))
	}
	first, second := srv.queue.events[0], srv.queue.events[1]
	if first.GameID == "" {
		t.Fatal("expected a derived game id")
	}
	if first.GameID != second.GameID {
		t.Errorf("identical submissions got ids %q and %q", first.GameID, second.GameID)
	}
	if first.Subject.ID != "u1" || first.Record == nil {
		t.Errorf("unexpected event %+v", first)
	}
}

func TestSyncIngestAndSnapshot(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	w := srv.do(http.MethodPost, "/api/v1/games?sync=true", sampleGame)
	if w.Code != http.StatusOK {
		t.Fatalf("sync ingest status = %d: %s", w.Code, w.Body.String())
	}
	if srv.queue.QueueDepth() != 0 {
		t.Error("sync ingest should not use the queue")
	}

	// Replaying the same game must not double count.
	srv.do(http.MethodPost, "/api/v1/games?sync=true", sampleGame)

	for _, category := range []string{"all", "2024_6", "2024_all", "2024_6_official", "2024_official_all", "official_all"} {
		w = srv.do(http.MethodGet, "/api/v1/subjects/user/u1/snapshots/"+category, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", category, w.Code)
		}
		var snap models.StatSnapshot
		if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
			t.Fatalf("%s: decode: %v", category, err)
		}
		if snap.Games != 1 || snap.Hits != 1 || snap.AtBats != 2 || snap.Walks != 1 {
			t.Errorf("%s: games=%d hits=%d atBats=%d walks=%d", category, snap.Games, snap.Hits, snap.AtBats, snap.Walks)
		}
		if snap.BattingAverage != 0.5 {
			t.Errorf("%s: battingAverage = %v, want 0.5", category, snap.BattingAverage)
		}
	}

	w = srv.do(http.MethodGet, "/api/v1/subjects/user/u1/streaks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("streaks status = %d", w.Code)
	}
	var state models.StreakState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.Hit.Current != 1 {
		t.Errorf("hit streak = %d, want 1", state.Hit.Current)
	}
}

func TestSnapshotRequests(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"Unseen subject is zero", "/api/v1/subjects/user/ghost/snapshots/all", http.StatusOK},
		{"Bad category", "/api/v1/subjects/user/u1/snapshots/someday", http.StatusBadRequest},
		{"Bad kind", "/api/v1/subjects/coach/u1/snapshots/all", http.StatusBadRequest},
		{"Advanced stats", "/api/v1/subjects/user/u1/snapshots/all/advanced", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodGet, tt.path, "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRankingEndpoints(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	if w := srv.do(http.MethodGet, "/api/v1/rankings/all/battingAverage", ""); w.Code != http.StatusNotFound {
		t.Fatalf("leaderboard before ranking: status = %d, want 404", w.Code)
	}

	if w := srv.do(http.MethodPut, "/api/v1/users/u1/profile", `{"birth_date":"2012-04-01"}`); w.Code != http.StatusOK {
		t.Fatalf("save profile: status = %d: %s", w.Code, w.Body.String())
	}
	if w := srv.do(http.MethodPut, "/api/v1/users/u1/profile", `{"birth_date":"yesterday"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad birth date: status = %d, want 400", w.Code)
	}

	srv.do(http.MethodPost, "/api/v1/games?sync=true", sampleGame)

	w := srv.do(http.MethodPost, "/api/v1/rankings/all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("rank: status = %d: %s", w.Code, w.Body.String())
	}
	var resp models.RankPeriodResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Leaderboards) != len(logic.DefaultRankMetrics()) {
		t.Errorf("got %d leaderboards, want %d", len(resp.Leaderboards), len(logic.DefaultRankMetrics()))
	}

	w = srv.do(http.MethodGet, "/api/v1/rankings/all/battingAverage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: status = %d", w.Code)
	}
	var board models.Leaderboard
	if err := json.Unmarshal(w.Body.Bytes(), &board); err != nil {
		t.Fatal(err)
	}
	if len(board.Top) != 1 || board.Top[0].SubjectID != "u1" {
		t.Errorf("top = %+v, want u1 alone", board.Top)
	}

	// u1 is inside the top N, so no neighbor document exists.
	if w := srv.do(http.MethodGet, "/api/v1/rankings/all/battingAverage/neighbors/u1", ""); w.Code != http.StatusNotFound {
		t.Errorf("neighbors: status = %d, want 404", w.Code)
	}
}

func TestRankSuppliedCandidates(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	body := `{"candidates":[
		{"subject_id":"a","age":16,"snapshot":{"games":2,"totalBats":8,"battingAverage":0.5}},
		{"subject_id":"b","age":35,"snapshot":{"games":2,"totalBats":8,"battingAverage":0.25}},
		{"subject_id":"c","snapshot":null}
	]}`
	if w := srv.do(http.MethodPost, "/api/v1/rankings/2024_6", body); w.Code != http.StatusOK {
		t.Fatalf("rank: status = %d: %s", w.Code, w.Body.String())
	}

	w := srv.do(http.MethodGet, "/api/v1/rankings/2024_6/battingAverage?age_group=30-39", "")
	if w.Code != http.StatusOK {
		t.Fatalf("age group board: status = %d", w.Code)
	}
	var group struct {
		AgeGroup string             `json:"ageGroup"`
		Top      []models.RankEntry `json:"top"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &group); err != nil {
		t.Fatal(err)
	}
	if group.AgeGroup != "30-39" || len(group.Top) != 1 || group.Top[0].SubjectID != "b" || *group.Top[0].AgeGroupRank != 1 {
		t.Errorf("age group board = %+v", group)
	}

	if w := srv.do(http.MethodPost, "/api/v1/rankings/2024_6", `{"candidates":[{"age":20}]}`); w.Code != http.StatusBadRequest {
		t.Errorf("candidate without id: status = %d, want 400", w.Code)
	}
	if w := srv.do(http.MethodPost, "/api/v1/rankings/2024_13", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad category: status = %d, want 400", w.Code)
	}
}

func TestTeamRollupEndpoints(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	if w := srv.do(http.MethodPost, "/api/v1/teams/t1/rollup/all", ""); w.Code != http.StatusNotFound {
		t.Fatalf("rollup without roster: status = %d, want 404", w.Code)
	}

	roster := `{"members":[{"user_id":"u1"},{"user_id":"u2","is_pitcher":true}]}`
	if w := srv.do(http.MethodPut, "/api/v1/teams/t1/roster", roster); w.Code != http.StatusOK {
		t.Fatalf("save roster: status = %d: %s", w.Code, w.Body.String())
	}

	srv.do(http.MethodPost, "/api/v1/games?sync=true", sampleGame)

	w := srv.do(http.MethodPost, "/api/v1/teams/t1/rollup/all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("rollup: status = %d: %s", w.Code, w.Body.String())
	}
	var result models.RollupResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Members != 2 {
		t.Errorf("members = %d, want 2", result.Members)
	}
	if len(result.MissingMembers) != 1 || result.MissingMembers[0] != "u2" {
		t.Errorf("missing = %v, want [u2]", result.MissingMembers)
	}
	if result.Snapshot == nil || result.Snapshot.Hits != 1 {
		t.Errorf("rolled up snapshot = %+v", result.Snapshot)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, RouterConfig{})

	if w := srv.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health: status = %d", w.Code)
	}

	w := srv.do(http.MethodGet, "/ready", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ready: status = %d", w.Code)
	}
	var body struct {
		Ready  bool            `json:"ready"`
		Checks map[string]bool `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Ready || !body.Checks["store"] {
		t.Errorf("ready body = %+v", body)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, RouterConfig{RateLimitPerSecond: 1, RateLimitBurst: 1})

	if w := srv.do(http.MethodGet, "/api/v1/subjects/user/u1/streaks", ""); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := srv.do(http.MethodGet, "/api/v1/subjects/user/u1/streaks", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Health stays outside the limiter.
	if w := srv.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health: status = %d", w.Code)
	}
}

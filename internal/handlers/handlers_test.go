package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bullseye-tracker/stats-api/internal/logic"
	"github.com/bullseye-tracker/stats-api/internal/models"
)

func serve(t *testing.T, h *Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	NewRouter(h, []string{"*"}).ServeHTTP(w, req)
	return w
}

func TestRootAndHealth(t *testing.T) {
	h := newTestHandler(Config{})

	w := serve(t, h, "GET", "/", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("GET / = %d %q", w.Code, w.Body.String())
	}

	w = serve(t, h, "GET", "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("GET /health = %d %s", w.Code, w.Body.String())
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		wantStatus int
	}{
		{name: "no dependencies", cfg: Config{}, wantStatus: http.StatusOK},
		{name: "all healthy", cfg: Config{Database: &MockPinger{}, ClickHouse: &MockPinger{}, RateLimiter: &MockRateLimiter{}}, wantStatus: http.StatusOK},
		{name: "database down", cfg: Config{Database: &MockPinger{Err: errors.New("down")}}, wantStatus: http.StatusServiceUnavailable},
		{name: "redis down", cfg: Config{Database: &MockPinger{}, RateLimiter: &MockRateLimiter{PingErr: errors.New("down")}}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, newTestHandler(tt.cfg), "GET", "/ready", "", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestReadyReportsQueueDepth(t *testing.T) {
	h := newTestHandler(Config{Archive: &MockArchiver{Depth: 7}})
	w := serve(t, h, "GET", "/ready", "", nil)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["queueDepth"] != float64(7) {
		t.Errorf("queueDepth = %v", body["queueDepth"])
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		headers    map[string]string
		wantStatus int
	}{
		{name: "no key configured", apiKey: "", wantStatus: http.StatusOK},
		{name: "missing token", apiKey: "secret", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", apiKey: "secret", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "bearer token", apiKey: "secret", headers: map[string]string{"Authorization": "Bearer secret"}, wantStatus: http.StatusOK},
		{name: "header token", apiKey: "secret", headers: map[string]string{"X-API-Key": "secret"}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Config{APIKey: tt.apiKey})
			w := serve(t, h, "POST", "/api/submit-game", `{"code":"x"}`, tt.headers)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestReadRoutesAreOpen(t *testing.T) {
	h := newTestHandler(Config{APIKey: "secret"})
	for _, path := range []string{"/api/games", "/api/stats", "/api/leaderboard/teams", "/api/players/p1/stats", "/api/teams/a,b/stats"} {
		if w := serve(t, h, "GET", path, "", nil); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
	for _, path := range []string{"/api/admin/players", "/api/admin/players/p1"} {
		if w := serve(t, h, "GET", path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without key = %d", path, w.Code)
		}
	}
}

func TestSubmitGame(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
	}{
		{name: "stored", body: `{"code":"abc"}`, wantStatus: http.StatusOK},
		{name: "invalid payload", body: `[1]`, submitErr: logic.ErrInvalidPayload, wantStatus: http.StatusBadRequest},
		{name: "store failure", body: `{}`, submitErr: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
		{name: "too large", body: `{"x":"` + strings.Repeat("a", MaxBodySize) + `"}`, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []byte
			h := newTestHandler(Config{Ingest: &MockIngestService{
				SubmitGameFunc: func(ctx context.Context, raw []byte) (int64, error) {
					got = raw
					if tt.submitErr != nil {
						return 0, tt.submitErr
					}
					return 42, nil
				},
			}})

			w := serve(t, h, "POST", "/api/submit-game", tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if string(got) != tt.body {
					t.Errorf("service got %q", got)
				}
				if !strings.Contains(w.Body.String(), `"id":42`) {
					t.Errorf("body = %s", w.Body.String())
				}
			}
		})
	}
}

func TestDeleteGame(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		deleteErr  error
		wantStatus int
	}{
		{name: "deleted", path: "/api/games/3", wantStatus: http.StatusOK},
		{name: "not a number", path: "/api/games/abc", wantStatus: http.StatusBadRequest},
		{name: "missing", path: "/api/games/9", deleteErr: logic.ErrMatchNotFound, wantStatus: http.StatusNotFound},
		{name: "store failure", path: "/api/games/9", deleteErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			h := newTestHandler(Config{Ingest: &MockIngestService{
				DeleteGameFunc: func(ctx context.Context, id int64) error {
					gotID = id
					return tt.deleteErr
				},
			}})
			w := serve(t, h, "DELETE", tt.path, "", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.name == "deleted" && gotID != 3 {
				t.Errorf("deleted id = %d", gotID)
			}
		})
	}
}

func TestStatsFilterParsing(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       logic.Filter
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK, want: logic.Filter{}},
		{name: "all set", query: "?exclude_abandons=true&map=World&score_type=game", wantStatus: http.StatusOK,
			want: logic.Filter{ExcludeAbandons: true, Map: "World", ScoreMode: logic.ScoreGame}},
		{name: "personal", query: "?score_type=personal", wantStatus: http.StatusOK, want: logic.Filter{ScoreMode: logic.ScorePersonal}},
		{name: "bad bool", query: "?exclude_abandons=maybe", wantStatus: http.StatusBadRequest},
		{name: "bad score type", query: "?score_type=team", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logic.Filter
			var gotID string
			h := newTestHandler(Config{Stats: &MockStatsService{
				GetPlayerStatsFunc: func(ctx context.Context, playerID string, filter logic.Filter) (*models.PlayerStatsDetailed, error) {
					got, gotID = filter, playerID
					return &models.PlayerStatsDetailed{PlayerID: playerID}, nil
				},
			}})

			w := serve(t, h, "GET", "/api/players/p1/stats"+tt.query, "", nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (got != tt.want || gotID != "p1") {
				t.Errorf("filter = %+v id = %q, want %+v", got, gotID, tt.want)
			}
		})
	}
}

func TestTeamStatsDecodesID(t *testing.T) {
	var gotID string
	h := newTestHandler(Config{Stats: &MockStatsService{
		GetTeamStatsFunc: func(ctx context.Context, teamID string, filter logic.Filter) (*models.TeamStatsDetailed, error) {
			gotID = teamID
			return &models.TeamStatsDetailed{TeamID: teamID}, nil
		},
	}})

	w := serve(t, h, "GET", "/api/teams/a%2Cb/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotID != "a,b" {
		t.Errorf("team id = %q", gotID)
	}
}

func TestStatsServiceErrors(t *testing.T) {
	boom := errors.New("boom")
	h := newTestHandler(Config{Stats: &MockStatsService{
		GetGlobalStatsFunc: func(ctx context.Context, filter logic.Filter) (*models.GameStats, error) {
			return nil, boom
		},
		GetTeamLeaderboardFunc: func(ctx context.Context, filter logic.Filter) ([]models.TeamStats, error) {
			return nil, boom
		},
		ListGamesFunc: func(ctx context.Context, filter logic.Filter) ([]models.GameSummary, error) {
			return nil, boom
		},
	}})

	for _, path := range []string{"/api/stats", "/api/leaderboard/teams", "/api/games"} {
		if w := serve(t, h, "GET", path, "", nil); w.Code != http.StatusInternalServerError {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
}

func TestLinkPlayers(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		linkErr    error
		wantStatus int
	}{
		{name: "linked", body: `{"alias_id":"p2","primary_id":"p1"}`, wantStatus: http.StatusOK},
		{name: "missing primary", body: `{"alias_id":"p2"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "self link", body: `{"alias_id":"p1","primary_id":"p1"}`, linkErr: logic.ErrSelfLink, wantStatus: http.StatusBadRequest},
		{name: "primary is alias", body: `{"alias_id":"p3","primary_id":"p2"}`, linkErr: logic.ErrPrimaryIsAlias, wantStatus: http.StatusBadRequest},
		{name: "alias has children", body: `{"alias_id":"p1","primary_id":"p4"}`, linkErr: logic.ErrAliasHasChildren, wantStatus: http.StatusBadRequest},
		{name: "store failure", body: `{"alias_id":"p2","primary_id":"p1"}`, linkErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var alias, primary string
			h := newTestHandler(Config{Identity: &MockIdentityService{
				LinkFunc: func(ctx context.Context, aliasID, primaryID string) error {
					alias, primary = aliasID, primaryID
					return tt.linkErr
				},
			}})

			w := serve(t, h, "POST", "/api/admin/link", tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.name == "linked" && (alias != "p2" || primary != "p1") {
				t.Errorf("link(%q, %q)", alias, primary)
			}
		})
	}
}

func TestUnlinkPlayer(t *testing.T) {
	var got string
	h := newTestHandler(Config{Identity: &MockIdentityService{
		UnlinkFunc: func(ctx context.Context, aliasID string) error {
			got = aliasID
			return nil
		},
	}})

	if w := serve(t, h, "POST", "/api/admin/unlink", `{"alias_id":" p2 "}`, nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got != "p2" {
		t.Errorf("unlinked %q", got)
	}
	if w := serve(t, h, "POST", "/api/admin/unlink", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d", w.Code)
	}
}

func TestAdminReads(t *testing.T) {
	primary := "p1"
	h := newTestHandler(Config{Identity: &MockIdentityService{
		ListPlayersFunc: func(ctx context.Context) ([]models.AdminPlayerInfo, error) {
			return []models.AdminPlayerInfo{{ID: "p2", Name: "Bob", PrimaryID: &primary, Aliases: []string{}}}, nil
		},
	}})

	w := serve(t, h, "GET", "/api/admin/players", "", nil)
	var players []models.AdminPlayerInfo
	if err := json.Unmarshal(w.Body.Bytes(), &players); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(players) != 1 || players[0].PrimaryID == nil || *players[0].PrimaryID != "p1" {
		t.Errorf("players = %+v", players)
	}

	w = serve(t, h, "GET", "/api/admin/players/p9", "", nil)
	var info models.IdentityInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.ID != "p9" || info.PrimaryID != "p9" {
		t.Errorf("identity = %+v", info)
	}
}

package handlers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/logic"
	"github.com/bullseye-tracker/stats-api/internal/models"
)

// MockStatsService implements logic.StatsService
type MockStatsService struct {
	GetGlobalStatsFunc     func(ctx context.Context, filter logic.Filter) (*models.GameStats, error)
	GetTeamLeaderboardFunc func(ctx context.Context, filter logic.Filter) ([]models.TeamStats, error)
	GetPlayerStatsFunc     func(ctx context.Context, playerID string, filter logic.Filter) (*models.PlayerStatsDetailed, error)
	GetTeamStatsFunc       func(ctx context.Context, teamID string, filter logic.Filter) (*models.TeamStatsDetailed, error)
	ListGamesFunc          func(ctx context.Context, filter logic.Filter) ([]models.GameSummary, error)
}

func (m *MockStatsService) GetGlobalStats(ctx context.Context, filter logic.Filter) (*models.GameStats, error) {
	if m.GetGlobalStatsFunc != nil {
		return m.GetGlobalStatsFunc(ctx, filter)
	}
	return &models.GameStats{BestCountryGuesses: []models.CountryStat{}}, nil
}

func (m *MockStatsService) GetTeamLeaderboard(ctx context.Context, filter logic.Filter) ([]models.TeamStats, error) {
	if m.GetTeamLeaderboardFunc != nil {
		return m.GetTeamLeaderboardFunc(ctx, filter)
	}
	return []models.TeamStats{}, nil
}

func (m *MockStatsService) GetPlayerStats(ctx context.Context, playerID string, filter logic.Filter) (*models.PlayerStatsDetailed, error) {
	if m.GetPlayerStatsFunc != nil {
		return m.GetPlayerStatsFunc(ctx, playerID, filter)
	}
	return &models.PlayerStatsDetailed{PlayerID: playerID}, nil
}

func (m *MockStatsService) GetTeamStats(ctx context.Context, teamID string, filter logic.Filter) (*models.TeamStatsDetailed, error) {
	if m.GetTeamStatsFunc != nil {
		return m.GetTeamStatsFunc(ctx, teamID, filter)
	}
	return &models.TeamStatsDetailed{TeamID: teamID}, nil
}

func (m *MockStatsService) ListGames(ctx context.Context, filter logic.Filter) ([]models.GameSummary, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx, filter)
	}
	return []models.GameSummary{}, nil
}

// MockIdentityService implements logic.IdentityService
type MockIdentityService struct {
	ListPlayersFunc func(ctx context.Context) ([]models.AdminPlayerInfo, error)
	GetIdentityFunc func(ctx context.Context, id string) (*models.IdentityInfo, error)
	LinkFunc        func(ctx context.Context, aliasID, primaryID string) error
	UnlinkFunc      func(ctx context.Context, aliasID string) error
}

func (m *MockIdentityService) ListPlayers(ctx context.Context) ([]models.AdminPlayerInfo, error) {
	if m.ListPlayersFunc != nil {
		return m.ListPlayersFunc(ctx)
	}
	return []models.AdminPlayerInfo{}, nil
}

func (m *MockIdentityService) GetIdentity(ctx context.Context, id string) (*models.IdentityInfo, error) {
	if m.GetIdentityFunc != nil {
		return m.GetIdentityFunc(ctx, id)
	}
	return &models.IdentityInfo{ID: id, PrimaryID: id, Aliases: []string{}}, nil
}

func (m *MockIdentityService) Link(ctx context.Context, aliasID, primaryID string) error {
	if m.LinkFunc != nil {
		return m.LinkFunc(ctx, aliasID, primaryID)
	}
	return nil
}

func (m *MockIdentityService) Unlink(ctx context.Context, aliasID string) error {
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(ctx, aliasID)
	}
	return nil
}

// MockIngestService implements logic.IngestService
type MockIngestService struct {
	SubmitGameFunc func(ctx context.Context, raw []byte) (int64, error)
	DeleteGameFunc func(ctx context.Context, id int64) error
}

func (m *MockIngestService) SubmitGame(ctx context.Context, raw []byte) (int64, error) {
	if m.SubmitGameFunc != nil {
		return m.SubmitGameFunc(ctx, raw)
	}
	return 1, nil
}

func (m *MockIngestService) DeleteGame(ctx context.Context, id int64) error {
	if m.DeleteGameFunc != nil {
		return m.DeleteGameFunc(ctx, id)
	}
	return nil
}

// MockRateLimiter implements RateLimiter
type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string) (bool, error)
	PingErr   error
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key)
	}
	return true, nil
}

func (m *MockRateLimiter) Ping(ctx context.Context) error { return m.PingErr }

// MockPinger implements Pinger
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.Err }

// MockArchiver implements logic.RoundArchiver
type MockArchiver struct {
	Depth int
}

func (m *MockArchiver) Enqueue(matchID int64, fact logic.GameFact) bool { return true }
func (m *MockArchiver) QueueDepth() int                                 { return m.Depth }

// MockRedisClient implements RedisClient over an in-memory counter map
type MockRedisClient struct {
	counts  map[string]int64
	expires map[string]time.Duration
	IncrErr error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (m *MockRedisClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	if m.IncrErr != nil {
		return redis.NewIntResult(0, m.IncrErr)
	}
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *MockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

// newTestHandler builds a handler with default mocks; override fields on cfg
// before calling.
func newTestHandler(cfg Config) *Handler {
	if cfg.Stats == nil {
		cfg.Stats = &MockStatsService{}
	}
	if cfg.Identity == nil {
		cfg.Identity = &MockIdentityService{}
	}
	if cfg.Ingest == nil {
		cfg.Ingest = &MockIngestService{}
	}
	cfg.Logger = zap.NewNop()
	return New(cfg)
}

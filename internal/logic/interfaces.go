package logic

import (
	"context"
	"time"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

// MatchStore persists submitted match payloads.
type MatchStore interface {
	InsertMatch(ctx context.Context, rec *models.MatchRecord) (int64, error)
	// ListMatches returns every record in ascending id order.
	ListMatches(ctx context.Context) ([]models.MatchRecord, error)
	// DeleteMatch reports whether a row was removed.
	DeleteMatch(ctx context.Context, id int64) (bool, error)
	ScalarAggregates(ctx context.Context) (models.ScalarAggregates, error)
}

// PlayerDirectory maps raw player ids to their last known display name.
type PlayerDirectory interface {
	UpsertPlayer(ctx context.Context, id, name string) error
	AllPlayers(ctx context.Context) (map[string]string, error)
	PlayerName(ctx context.Context, id string) (string, bool, error)
}

// AliasStore persists alias edges. Writes are validated by the caller.
type AliasStore interface {
	AliasEdges(ctx context.Context) ([]models.AliasEdge, error)
	UpsertAlias(ctx context.Context, aliasID, primaryID string) error
	DeleteAlias(ctx context.Context, aliasID string) error
	AliasesOf(ctx context.Context, primaryID string) ([]string, error)
	PrimaryOf(ctx context.Context, aliasID string) (string, bool, error)
}

// RoundArchiver mirrors rounds of ingested games into the analytics store.
type RoundArchiver interface {
	Enqueue(matchID int64, fact GameFact) bool
	QueueDepth() int
}

type StatsService interface {
	GetGlobalStats(ctx context.Context, filter Filter) (*models.GameStats, error)
	GetTeamLeaderboard(ctx context.Context, filter Filter) ([]models.TeamStats, error)
	GetPlayerStats(ctx context.Context, playerID string, filter Filter) (*models.PlayerStatsDetailed, error)
	GetTeamStats(ctx context.Context, teamID string, filter Filter) (*models.TeamStatsDetailed, error)
	ListGames(ctx context.Context, filter Filter) ([]models.GameSummary, error)
}

type IdentityService interface {
	ListPlayers(ctx context.Context) ([]models.AdminPlayerInfo, error)
	GetIdentity(ctx context.Context, id string) (*models.IdentityInfo, error)
	Link(ctx context.Context, aliasID, primaryID string) error
	Unlink(ctx context.Context, aliasID string) error
}

type IngestService interface {
	SubmitGame(ctx context.Context, raw []byte) (int64, error)
	DeleteGame(ctx context.Context, id int64) error
}

// Clock is swapped in tests.
type Clock func() time.Time

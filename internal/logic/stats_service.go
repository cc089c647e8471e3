package logic

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

type statsService struct {
	snapshotLoader
}

func NewStatsService(matches MatchStore, players PlayerDirectory, aliases AliasStore, logger *zap.Logger) StatsService {
	return &statsService{snapshotLoader{
		matches: matches,
		players: players,
		aliases: aliases,
		logger:  logger.Sugar(),
	}}
}

// GetGlobalStats returns totals over every stored game and the top countries.
func (s *statsService) GetGlobalStats(ctx context.Context, filter Filter) (*models.GameStats, error) {
	stats := &models.GameStats{BestCountryGuesses: []models.CountryStat{}}

	// Unfiltered totals come straight from the store so they survive a
	// failed list.
	var scalar *models.ScalarAggregates
	if filter.IsZero() {
		agg, err := s.matches.ScalarAggregates(ctx)
		if err != nil {
			s.logger.Warnw("Scalar aggregates failed, folding totals from records", "error", err)
		} else {
			scalar = &agg
		}
	}

	snap, err := s.load(ctx)
	if err != nil {
		if scalar == nil {
			return nil, err
		}
		s.logger.Warnw("Country breakdown unavailable", "error", err)
		applyScalar(stats, scalar)
		return stats, nil
	}

	rollup := Aggregate(snap.facts, snap.aliases, GlobalScope(), filter)
	stats.TotalGames = int64(rollup.Count)
	stats.AverageScore = rollup.Average()
	stats.TotalDurationSeconds = rollup.TotalDuration
	if scalar != nil {
		applyScalar(stats, scalar)
	}
	stats.BestCountryGuesses = RankCountries(CountryStats(rollup.Countries), OrderBest, LeaderboardLimit)
	return stats, nil
}

func applyScalar(stats *models.GameStats, agg *models.ScalarAggregates) {
	stats.TotalGames = agg.Count
	stats.AverageScore = agg.AvgScore
	stats.TotalDurationSeconds = agg.SumDuration
}

// GetTeamLeaderboard ranks every roster by average game score.
func (s *statsService) GetTeamLeaderboard(ctx context.Context, filter Filter) ([]models.TeamStats, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	teams := AggregateTeams(snap.facts, snap.aliases, filter)
	rows := make([]models.TeamStats, 0, len(teams))
	for _, tt := range teams {
		members := memberInfos(tt.Members, snap.names)
		rows = append(rows, models.TeamStats{
			TeamID:        tt.Key,
			TeamName:      teamName(members),
			Members:       members,
			GamesPlayed:   tt.Count,
			AverageScore:  tt.Average(),
			TotalScore:    tt.TotalScore,
			TotalDuration: tt.TotalDuration,
		})
	}
	return RankTeams(rows, LeaderboardLimit), nil
}

// GetPlayerStats folds every game the player's identity group appeared in.
// Aliases resolve to their primary, which is what the response reports.
func (s *statsService) GetPlayerStats(ctx context.Context, playerID string, filter Filter) (*models.PlayerStatsDetailed, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	primary := snap.aliases.Resolve(playerID)
	rollup := Aggregate(snap.facts, snap.aliases, PlayerScope(primary), filter)
	countries := CountryStats(rollup.Countries)

	out := &models.PlayerStatsDetailed{
		PlayerID:       primary,
		TotalGames:     rollup.Count,
		AverageScore:   rollup.Average(),
		TotalDuration:  rollup.TotalDuration,
		BestCountries:  RankCountries(countries, OrderBest, PlayerCountryLimit),
		WorstCountries: RankCountries(countries, OrderWorst, PlayerCountryLimit),
		ScoreHistory:   rollup.History,
		Games:          snap.summaries(rollup.Games, ScopePlayer),
	}
	if name := firstKnownName(snap.names, primary, playerID); name != "" {
		out.PlayerName = &name
	}

	teams := make([]models.TeamStatSimple, 0, len(rollup.Teams))
	for _, tt := range rollup.Teams {
		members := memberInfos(tt.Members, snap.names)
		teams = append(teams, models.TeamStatSimple{
			TeamID:       tt.Key,
			TeamName:     teamName(members),
			Members:      members,
			AverageScore: tt.Average(),
			GamesPlayed:  tt.Count,
		})
	}
	out.BestTeams = RankTeamSummaries(teams, 0)
	return out, nil
}

// GetTeamStats folds every game whose resolved roster equals the team.
func (s *statsService) GetTeamStats(ctx context.Context, teamID string, filter Filter) (*models.TeamStatsDetailed, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	key, ids := ParseTeamID(teamID, snap.aliases)
	rollup := Aggregate(snap.facts, snap.aliases, TeamScope(key), filter)
	countries := CountryStats(rollup.Countries)

	var members []Member
	if len(rollup.Games) > 0 {
		members = teamMembers(&snap.facts[rollup.Games[0].Index], snap.aliases)
	} else {
		for _, id := range ids {
			members = append(members, Member{PrimaryID: id, RawID: id})
		}
	}
	infos := memberInfos(members, snap.names)

	return &models.TeamStatsDetailed{
		TeamID:         key,
		TeamName:       teamName(infos),
		Members:        infos,
		TotalGames:     rollup.Count,
		AverageScore:   rollup.Average(),
		TotalDuration:  rollup.TotalDuration,
		BestCountries:  RankCountries(countries, OrderBest, PlayerCountryLimit),
		WorstCountries: RankCountries(countries, OrderWorst, PlayerCountryLimit),
		ScoreHistory:   rollup.History,
		Games:          snap.summaries(rollup.Games, ScopeTeam),
	}, nil
}

// ListGames returns every stored game passing the filter, newest first.
func (s *statsService) ListGames(ctx context.Context, filter Filter) ([]models.GameSummary, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rollup := Aggregate(snap.facts, snap.aliases, GlobalScope(), filter)
	return snap.summaries(rollup.Games, ScopeGlobal), nil
}

func firstKnownName(names map[string]string, ids ...string) string {
	for _, id := range ids {
		if name := names[id]; name != "" {
			return name
		}
	}
	return ""
}

func sortNewestFirst(games []models.GameSummary) {
	slices.SortStableFunc(games, func(a, b models.GameSummary) int {
		if c := b.PlayedAt.Compare(a.PlayedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

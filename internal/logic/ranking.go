package logic

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

// Order selects the ranking direction by average.
type Order int

const (
	OrderBest Order = iota
	OrderWorst
)

const (
	LeaderboardLimit   = 10
	PlayerCountryLimit = 3
)

// Average divides total by count, yielding 0 for an empty rollup.
func Average(total int64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(total) / float64(count)
}

// rank orders items by average and truncates to limit (limit <= 0 keeps all).
// Equal averages fall back to ascending key so output is deterministic.
func rank[T any](items []T, order Order, limit int, average func(T) float64, key func(T) string) []T {
	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b T) int {
		c := cmp.Compare(average(a), average(b))
		if order == OrderBest {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(key(a), key(b))
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []T{}
	}
	return ranked
}

func RankCountries(stats []models.CountryStat, order Order, limit int) []models.CountryStat {
	return rank(stats, order, limit,
		func(c models.CountryStat) float64 { return c.Average },
		func(c models.CountryStat) string { return c.CountryCode })
}

func RankTeams(stats []models.TeamStats, limit int) []models.TeamStats {
	return rank(stats, OrderBest, limit,
		func(t models.TeamStats) float64 { return t.AverageScore },
		func(t models.TeamStats) string { return t.TeamID })
}

func RankTeamSummaries(stats []models.TeamStatSimple, limit int) []models.TeamStatSimple {
	return rank(stats, OrderBest, limit,
		func(t models.TeamStatSimple) float64 { return t.AverageScore },
		func(t models.TeamStatSimple) string { return t.TeamID })
}

// CountryStats converts country totals into unranked stat rows.
func CountryStats(totals map[string]*CountryTotals) []models.CountryStat {
	stats := make([]models.CountryStat, 0, len(totals))
	for code, ct := range totals {
		stats = append(stats, models.CountryStat{
			CountryCode: code,
			TotalScore:  ct.Points,
			Count:       ct.Rounds,
			Average:     Average(ct.Points, ct.Rounds),
		})
	}
	return stats
}

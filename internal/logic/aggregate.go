package logic

import (
	"slices"
	"strings"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

// ScoreMode selects which score a player-scoped rollup uses per game.
type ScoreMode int

const (
	// ScorePersonal sums the player's own guess points.
	ScorePersonal ScoreMode = iota
	// ScoreGame uses the sum of round points.
	ScoreGame
)

// ParseScoreMode maps the score_type query value; anything but "game" is personal.
func ParseScoreMode(s string) ScoreMode {
	if s == "game" {
		return ScoreGame
	}
	return ScorePersonal
}

// Filter restricts which games contribute to a rollup.
type Filter struct {
	ExcludeAbandons bool
	// Map is a case-insensitive substring of the map name. Games without a
	// map name are excluded when it is set.
	Map       string
	ScoreMode ScoreMode
}

// IsZero reports whether the filter lets every game through.
func (f Filter) IsZero() bool {
	return !f.ExcludeAbandons && f.Map == ""
}

func (f Filter) matchesMap(fact *GameFact) bool {
	if f.Map == "" {
		return true
	}
	if fact.MapName == "" {
		return false
	}
	return strings.Contains(strings.ToLower(fact.MapName), strings.ToLower(f.Map))
}

type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopePlayer
	ScopeTeam
)

// Scope selects whose games a rollup covers.
type Scope struct {
	Kind      ScopeKind
	PrimaryID string
	TeamKey   string
}

func GlobalScope() Scope               { return Scope{Kind: ScopeGlobal} }
func PlayerScope(primaryID string) Scope { return Scope{Kind: ScopePlayer, PrimaryID: primaryID} }
func TeamScope(key string) Scope        { return Scope{Kind: ScopeTeam, TeamKey: key} }

// Totals is a running count/score/duration triple.
type Totals struct {
	Count         int
	TotalScore    int64
	TotalDuration int64
}

func (t *Totals) add(score int, duration int64) {
	t.Count++
	t.TotalScore += int64(score)
	t.TotalDuration += duration
}

func (t Totals) Average() float64 {
	return Average(t.TotalScore, t.Count)
}

// CountryTotals counts rounds played in one country.
type CountryTotals struct {
	Points int64
	Rounds int
}

// TeamTotals accumulates games for one canonical roster.
type TeamTotals struct {
	Key     string
	Members []Member
	Totals
}

// Contribution records one game that qualified for a rollup.
type Contribution struct {
	// Index points into the fact slice given to Aggregate.
	Index int
	Score int
}

// Rollup is the folded result of one scoped query.
type Rollup struct {
	Totals
	Countries map[string]*CountryTotals
	// Teams is only populated for player scope.
	Teams   map[string]*TeamTotals
	History []models.ScorePoint
	Games   []Contribution
}

// Aggregate folds facts into a rollup for the scope. The map filter runs
// before roster matching, the abandon filter after it.
func Aggregate(facts []GameFact, aliases *Aliases, scope Scope, filter Filter) *Rollup {
	r := &Rollup{
		Countries: make(map[string]*CountryTotals),
		Teams:     make(map[string]*TeamTotals),
		History:   []models.ScorePoint{},
		Games:     []Contribution{},
	}
	if scope.Kind == ScopeTeam && scope.TeamKey == "" {
		return r
	}

	var identity map[string]bool
	if scope.Kind == ScopePlayer {
		expanded := aliases.Expand(scope.PrimaryID)
		identity = make(map[string]bool, len(expanded))
		for _, id := range expanded {
			identity[id] = true
		}
	}

	for i := range facts {
		fact := &facts[i]
		if !filter.matchesMap(fact) {
			continue
		}

		var entry *PlayerRef
		switch scope.Kind {
		case ScopePlayer:
			entry = findEntry(fact, identity)
			if entry == nil {
				continue
			}
		case ScopeTeam:
			if len(fact.Players) == 0 {
				continue
			}
			if key, _ := BuildTeamKey(fact.PlayerIDs(), aliases); key != scope.TeamKey {
				continue
			}
		}

		if filter.ExcludeAbandons && !fact.Finished {
			continue
		}

		score := fact.Score
		if scope.Kind == ScopePlayer {
			score = personalScore(fact, entry, filter.ScoreMode)
		}

		r.add(score, fact.TotalDuration)
		for _, round := range fact.Rounds {
			if round.CountryCode == "" {
				continue
			}
			code := strings.ToLower(round.CountryCode)
			ct, ok := r.Countries[code]
			if !ok {
				ct = &CountryTotals{}
				r.Countries[code] = ct
			}
			ct.Points += int64(round.Points)
			ct.Rounds++
		}

		if scope.Kind == ScopePlayer {
			// Teams count resolved identities, so a player boxing with
			// their own alias is not a team.
			if key, ids := BuildTeamKey(fact.PlayerIDs(), aliases); len(ids) > 1 {
				tt, ok := r.Teams[key]
				if !ok {
					tt = &TeamTotals{Key: key, Members: teamMembers(fact, aliases)}
					r.Teams[key] = tt
				}
				tt.add(score, fact.TotalDuration)
			}
		}

		r.History = append(r.History, models.ScorePoint{
			Date:    fact.PlayedAt,
			Score:   score,
			MapName: fact.MapName,
		})
		r.Games = append(r.Games, Contribution{Index: i, Score: score})
	}

	slices.SortStableFunc(r.History, func(a, b models.ScorePoint) int {
		return a.Date.Compare(b.Date)
	})
	return r
}

// AggregateTeams folds every game with a roster into per-team totals using
// the game-level score.
func AggregateTeams(facts []GameFact, aliases *Aliases, filter Filter) map[string]*TeamTotals {
	teams := make(map[string]*TeamTotals)
	for i := range facts {
		fact := &facts[i]
		if !filter.matchesMap(fact) {
			continue
		}
		if filter.ExcludeAbandons && !fact.Finished {
			continue
		}
		key, _ := BuildTeamKey(fact.PlayerIDs(), aliases)
		if key == "" {
			continue
		}
		tt, ok := teams[key]
		if !ok {
			tt = &TeamTotals{Key: key, Members: teamMembers(fact, aliases)}
			teams[key] = tt
		}
		tt.add(fact.Score, fact.TotalDuration)
	}
	return teams
}

// findEntry returns the first roster entry belonging to the identity. Later
// entries for the same identity are ignored so multi-boxing counts once.
func findEntry(fact *GameFact, identity map[string]bool) *PlayerRef {
	for i := range fact.Players {
		if id := fact.Players[i].ID; id != "" && identity[id] {
			return &fact.Players[i]
		}
	}
	return nil
}

func personalScore(fact *GameFact, entry *PlayerRef, mode ScoreMode) int {
	if mode == ScorePersonal && entry.HasGuesses {
		return entry.GuessPoints
	}
	return fact.RoundPoints()
}

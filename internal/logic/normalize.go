package logic

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

// MaxPointsPerRound is the fixed per-round score ceiling.
const MaxPointsPerRound = 5000

// RoundFact is one round of a normalized game.
type RoundFact struct {
	Number      int
	CountryCode string // empty when the round carries no panorama country
	Points      int
}

// PlayerRef is one roster entry of a normalized game.
type PlayerRef struct {
	ID          string
	Nick        string
	GuessPoints int
	// HasGuesses is false when the entry carried no guess list at all, which
	// is how legacy and co-op payloads look.
	HasGuesses bool
}

// GameFact is the normalized, transient view of a stored match payload.
type GameFact struct {
	GameID        string
	MapName       string
	Finished      bool
	TotalDuration int64
	RoundTime     *int64
	PlayedAt      time.Time
	// Score is the game-level score: the explicit guess score when nonzero,
	// else the sum of round points.
	Score   int
	Rounds  []RoundFact
	Players []PlayerRef
}

func (g *GameFact) RoundCount() int {
	return len(g.Rounds)
}

func (g *GameFact) MaxScore() int {
	return g.RoundCount() * MaxPointsPerRound
}

// RoundPoints sums the points awarded across all rounds.
func (g *GameFact) RoundPoints() int {
	total := 0
	for _, r := range g.Rounds {
		total += r.Points
	}
	return total
}

// CountryCodes lists round country codes in round order, skipping rounds without one.
func (g *GameFact) CountryCodes() []string {
	codes := make([]string, 0, len(g.Rounds))
	for _, r := range g.Rounds {
		if r.CountryCode != "" {
			codes = append(codes, r.CountryCode)
		}
	}
	return codes
}

// PlayerIDs returns the raw roster ids in listing order.
func (g *GameFact) PlayerIDs() []string {
	ids := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// Normalize decodes a stored payload into a GameFact. It never fails: a blob
// that is not a JSON object yields an empty, unfinished game dated storedAt.
func Normalize(raw []byte, storedAt time.Time) GameFact {
	var payload models.BullseyePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return GameFact{PlayedAt: storedAt}
	}
	return FromPayload(&payload, storedAt)
}

// FromPayload applies the field fallback chains to an already decoded payload.
func FromPayload(p *models.BullseyePayload, storedAt time.Time) GameFact {
	fact := GameFact{PlayedAt: storedAt}
	state := p.State()

	fact.GameID = firstNonEmpty(p.GameID)
	if fact.GameID == "" && state != nil {
		fact.GameID = firstNonEmpty(state.GameID)
	}
	if p.TotalDuration != nil {
		fact.TotalDuration = *p.TotalDuration
	}

	if state != nil {
		fact.MapName = firstNonEmpty(state.MapName)
		fact.Finished = state.Status != nil && strings.EqualFold(*state.Status, "finished")
		if state.Options != nil && state.Options.RoundTime != nil {
			rt := *state.Options.RoundTime
			fact.RoundTime = &rt
		}

		fact.Rounds = make([]RoundFact, 0, len(state.Rounds))
		for _, r := range state.Rounds {
			rf := RoundFact{Points: r.Score.PointsOrZero()}
			if r.RoundNumber != nil {
				rf.Number = *r.RoundNumber
			}
			if r.Panorama != nil {
				rf.CountryCode = firstNonEmpty(r.Panorama.CountryCode)
			}
			fact.Rounds = append(fact.Rounds, rf)
		}

		fact.Players = make([]PlayerRef, 0, len(state.Players))
		for _, pl := range state.Players {
			ref := PlayerRef{
				ID:         firstNonEmpty(pl.PlayerID),
				Nick:       firstNonEmpty(pl.Nick),
				HasGuesses: pl.Guesses != nil,
			}
			for _, g := range pl.Guesses {
				ref.GuessPoints += g.Score.PointsOrZero()
			}
			fact.Players = append(fact.Players, ref)
		}
	}

	fact.Score = explicitGuessScore(p)
	if fact.Score == 0 {
		fact.Score = fact.RoundPoints()
	}

	if ts, ok := resolvePlayedAt(p, state); ok {
		fact.PlayedAt = ts
	}

	return fact
}

func explicitGuessScore(p *models.BullseyePayload) int {
	if p.Bullseye == nil || p.Bullseye.Guess == nil {
		return 0
	}
	return p.Bullseye.Guess.Score.PointsOrZero()
}

// resolvePlayedAt walks: explicit timestamp, round #1 start, first round start.
func resolvePlayedAt(p *models.BullseyePayload, state *models.BullseyeState) (time.Time, bool) {
	if p.Timestamp != nil {
		if ts, ok := parseTimestamp(*p.Timestamp); ok {
			return ts, true
		}
	}
	if state == nil || len(state.Rounds) == 0 {
		return time.Time{}, false
	}
	for _, r := range state.Rounds {
		if r.RoundNumber != nil && *r.RoundNumber == 1 && r.StartTime != nil {
			if ts, ok := parseTimestamp(*r.StartTime); ok {
				return ts, true
			}
			break
		}
	}
	if first := state.Rounds[0]; first.StartTime != nil {
		return parseTimestamp(*first.StartTime)
	}
	return time.Time{}, false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts ISO-8601 variants and unix epochs (seconds or
// milliseconds). Unparseable values count as absent.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

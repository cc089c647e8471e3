package logic

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

// snapshot is everything one read query folds over. It is built per request
// and never shared.
type snapshot struct {
	records []models.MatchRecord
	facts   []GameFact
	aliases *Aliases
	// directory is the stored player table; names overlays payload nicks on it.
	directory map[string]string
	names     map[string]string
}

type snapshotLoader struct {
	matches MatchStore
	players PlayerDirectory
	aliases AliasStore
	logger  *zap.SugaredLogger
}

// load reads the three stores in parallel. Only a failure to list matches is
// fatal; alias and directory failures fall back to empty relations.
func (l *snapshotLoader) load(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{}
	var edges []models.AliasEdge

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := l.matches.ListMatches(gctx)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		snap.records = records
		return nil
	})

	g.Go(func() error {
		e, err := l.aliases.AliasEdges(gctx)
		if err != nil {
			l.logger.Warnw("Failed to load alias edges, resolving without aliases", "error", err)
			return nil
		}
		edges = e
		return nil
	})

	g.Go(func() error {
		dir, err := l.players.AllPlayers(gctx)
		if err != nil {
			l.logger.Warnw("Failed to load player directory", "error", err)
			return nil
		}
		snap.directory = dir
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snap.directory == nil {
		snap.directory = map[string]string{}
	}
	snap.aliases = NewAliases(edges)
	snap.facts = make([]GameFact, len(snap.records))
	for i := range snap.records {
		snap.facts[i] = Normalize(snap.records[i].Data, snap.records[i].PlayedAt)
	}
	snap.names = learnNames(snap.directory, snap.facts)
	return snap, nil
}

// summary renders one stored game. Stored columns win over values derived
// from the payload.
func (s *snapshot) summary(idx int) models.GameSummary {
	rec := &s.records[idx]
	fact := &s.facts[idx]

	sum := models.GameSummary{
		ID:            rec.ID,
		GameID:        rec.GameID,
		MapName:       rec.MapName,
		Score:         rec.Score,
		RoundTime:     rec.RoundTime,
		TotalDuration: rec.TotalDuration,
		PlayedAt:      fact.PlayedAt,
		Players:       rosterInfos(fact, s.aliases, s.names),
		CountryCodes:  fact.CountryCodes(),
		RoundCount:    fact.RoundCount(),
		MaxScore:      fact.MaxScore(),
		IsFinished:    fact.Finished,
	}
	if sum.GameID == nil && fact.GameID != "" {
		sum.GameID = &fact.GameID
	}
	if sum.MapName == nil && fact.MapName != "" {
		sum.MapName = &fact.MapName
	}
	if sum.Score == nil {
		score := int64(fact.Score)
		sum.Score = &score
	}
	if sum.RoundTime == nil {
		sum.RoundTime = fact.RoundTime
	}
	if sum.TotalDuration == nil && fact.TotalDuration != 0 {
		d := fact.TotalDuration
		sum.TotalDuration = &d
	}
	return sum
}

// summaries renders contributing games newest first. Player and team scopes
// report the score the rollup counted for each game, and team scope lists
// the roster by resolved identity.
func (s *snapshot) summaries(games []Contribution, kind ScopeKind) []models.GameSummary {
	out := make([]models.GameSummary, 0, len(games))
	for _, c := range games {
		sum := s.summary(c.Index)
		if kind != ScopeGlobal {
			score := int64(c.Score)
			sum.Score = &score
		}
		if kind == ScopeTeam {
			sum.Players = memberInfos(teamMembers(&s.facts[c.Index], s.aliases), s.names)
		}
		out = append(out, sum)
	}
	sortNewestFirst(out)
	return out
}

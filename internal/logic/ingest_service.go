package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

var (
	ErrInvalidPayload = errors.New("payload is not a JSON object")
	ErrMatchNotFound  = errors.New("match not found")
)

type ingestService struct {
	matches  MatchStore
	players  PlayerDirectory
	archiver RoundArchiver
	now      Clock
	logger   *zap.SugaredLogger
}

// IngestConfig wires the ingest path. Archiver may be nil.
type IngestConfig struct {
	Matches  MatchStore
	Players  PlayerDirectory
	Archiver RoundArchiver
	Clock    Clock
	Logger   *zap.Logger
}

func NewIngestService(cfg IngestConfig) IngestService {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &ingestService{
		matches:  cfg.Matches,
		players:  cfg.Players,
		archiver: cfg.Archiver,
		now:      now,
		logger:   cfg.Logger.Sugar(),
	}
}

// SubmitGame stores a payload verbatim alongside the columns derived from
// it, records the roster nicks, and hands the rounds to the archive.
func (s *ingestService) SubmitGame(ctx context.Context, raw []byte) (int64, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, ErrInvalidPayload
	}
	var payload models.BullseyePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	fact := FromPayload(&payload, s.now().UTC())
	score := int64(fact.Score)
	rec := &models.MatchRecord{
		GameID:    optionalString(fact.GameID),
		MapName:   optionalString(fact.MapName),
		Score:     &score,
		RoundTime: fact.RoundTime,
		PlayedAt:  fact.PlayedAt,
		Data:      raw,
	}
	if payload.TotalDuration != nil {
		rec.TotalDuration = payload.TotalDuration
	}

	id, err := s.matches.InsertMatch(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}

	for _, p := range fact.Players {
		if p.ID == "" || p.Nick == "" {
			continue
		}
		if err := s.players.UpsertPlayer(ctx, p.ID, p.Nick); err != nil {
			s.logger.Warnw("Failed to upsert player", "player_id", p.ID, "match_id", id, "error", err)
		}
	}

	if s.archiver != nil && !s.archiver.Enqueue(id, fact) {
		s.logger.Warnw("Round archive queue full, skipping", "match_id", id)
	}

	s.logger.Infow("Game stored",
		"match_id", id,
		"game_id", fact.GameID,
		"score", fact.Score,
		"rounds", fact.RoundCount(),
		"finished", fact.Finished,
	)
	return id, nil
}

// DeleteGame removes a stored match.
func (s *ingestService) DeleteGame(ctx context.Context, id int64) error {
	deleted, err := s.matches.DeleteMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if !deleted {
		return ErrMatchNotFound
	}
	s.logger.Infow("Game deleted", "match_id", id)
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

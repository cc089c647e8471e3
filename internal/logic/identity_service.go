package logic

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

type identityService struct {
	snapshotLoader
	// linkMu serializes validate-then-write so concurrent links cannot
	// build a chain between them.
	linkMu sync.Mutex
}

func NewIdentityService(matches MatchStore, players PlayerDirectory, aliases AliasStore, logger *zap.Logger) IdentityService {
	return &identityService{snapshotLoader: snapshotLoader{
		matches: matches,
		players: players,
		aliases: aliases,
		logger:  logger.Sugar(),
	}}
}

// ListPlayers backfills the directory from every stored payload, then lists
// each known player with its alias relations, ordered by name.
func (s *identityService) ListPlayers(ctx context.Context) ([]models.AdminPlayerInfo, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for id, name := range snap.names {
		if snap.directory[id] == name {
			continue
		}
		if err := s.players.UpsertPlayer(ctx, id, name); err != nil {
			s.logger.Warnw("Failed to backfill player", "player_id", id, "error", err)
		}
	}

	players := make([]models.AdminPlayerInfo, 0, len(snap.names))
	for id, name := range snap.names {
		info := models.AdminPlayerInfo{
			ID:      id,
			Name:    name,
			Aliases: snap.aliases.AliasesOf(id),
		}
		if primary, ok := snap.aliases.PrimaryOf(id); ok {
			info.PrimaryID = &primary
		}
		if info.Aliases == nil {
			info.Aliases = []string{}
		}
		players = append(players, info)
	}
	slices.SortFunc(players, func(a, b models.AdminPlayerInfo) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return players, nil
}

// GetIdentity reports the identity group a raw id belongs to.
func (s *identityService) GetIdentity(ctx context.Context, id string) (*models.IdentityInfo, error) {
	primary, ok, err := s.aliases.PrimaryOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup primary: %w", err)
	}
	if !ok {
		primary = id
	}

	aliases, err := s.aliases.AliasesOf(ctx, primary)
	if err != nil {
		return nil, fmt.Errorf("lookup aliases: %w", err)
	}
	if aliases == nil {
		aliases = []string{}
	}
	slices.Sort(aliases)

	info := &models.IdentityInfo{ID: id, PrimaryID: primary, Aliases: aliases}
	for _, candidate := range []string{primary, id} {
		name, found, err := s.players.PlayerName(ctx, candidate)
		if err != nil {
			s.logger.Warnw("Player name lookup failed", "player_id", candidate, "error", err)
			break
		}
		if found && name != "" {
			info.Name = &name
			break
		}
	}
	return info, nil
}

// Link points aliasID at primaryID after validating against the current
// relation. Rejected links leave the store untouched.
func (s *identityService) Link(ctx context.Context, aliasID, primaryID string) error {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	edges, err := s.aliases.AliasEdges(ctx)
	if err != nil {
		return fmt.Errorf("load alias edges: %w", err)
	}
	if err := NewAliases(edges).Link(aliasID, primaryID); err != nil {
		return err
	}
	if err := s.aliases.UpsertAlias(ctx, aliasID, primaryID); err != nil {
		return fmt.Errorf("store alias: %w", err)
	}
	s.logger.Infow("Linked player alias", "alias_id", aliasID, "primary_id", primaryID)
	return nil
}

// Unlink removes aliasID's edge. Unknown aliases are a no-op.
func (s *identityService) Unlink(ctx context.Context, aliasID string) error {
	s.linkMu.Lock()
	defer s.linkMu.Unlock()

	if err := s.aliases.DeleteAlias(ctx, aliasID); err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	s.logger.Infow("Unlinked player alias", "alias_id", aliasID)
	return nil
}

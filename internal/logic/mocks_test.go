package logic

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

// memStore is an in-memory MatchStore, PlayerDirectory and AliasStore.
// The *Err fields force the matching call to fail.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	matches []models.MatchRecord
	players map[string]string
	aliases map[string]string

	ListErr    error
	ScalarErr  error
	AliasErr   error
	PlayersErr error
}

func newMemStore() *memStore {
	return &memStore{players: map[string]string{}, aliases: map[string]string{}}
}

func (m *memStore) InsertMatch(ctx context.Context, rec *models.MatchRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r := *rec
	r.ID = m.nextID
	m.matches = append(m.matches, r)
	return r.ID, nil
}

func (m *memStore) ListMatches(ctx context.Context) ([]models.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return slices.Clone(m.matches), nil
}

func (m *memStore) DeleteMatch(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.matches)
	m.matches = slices.DeleteFunc(m.matches, func(r models.MatchRecord) bool { return r.ID == id })
	return len(m.matches) < before, nil
}

func (m *memStore) ScalarAggregates(ctx context.Context) (models.ScalarAggregates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ScalarErr != nil {
		return models.ScalarAggregates{}, m.ScalarErr
	}
	var agg models.ScalarAggregates
	var total int64
	for _, r := range m.matches {
		agg.Count++
		if r.Score != nil {
			total += *r.Score
		}
		if r.TotalDuration != nil {
			agg.SumDuration += *r.TotalDuration
		}
	}
	if agg.Count > 0 {
		agg.AvgScore = float64(total) / float64(agg.Count)
	}
	return agg, nil
}

func (m *memStore) UpsertPlayer(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[id] = name
	return nil
}

func (m *memStore) AllPlayers(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayersErr != nil {
		return nil, m.PlayersErr
	}
	out := make(map[string]string, len(m.players))
	for k, v := range m.players {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) PlayerName(ctx context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.players[id]
	return name, ok, nil
}

func (m *memStore) AliasEdges(ctx context.Context) ([]models.AliasEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AliasErr != nil {
		return nil, m.AliasErr
	}
	edges := make([]models.AliasEdge, 0, len(m.aliases))
	for alias, primary := range m.aliases {
		edges = append(edges, models.AliasEdge{AliasID: alias, PrimaryID: primary})
	}
	return edges, nil
}

func (m *memStore) UpsertAlias(ctx context.Context, aliasID, primaryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[aliasID] = primaryID
	return nil
}

func (m *memStore) DeleteAlias(ctx context.Context, aliasID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.aliases, aliasID)
	return nil
}

func (m *memStore) AliasesOf(ctx context.Context, primaryID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for alias, primary := range m.aliases {
		if primary == primaryID {
			out = append(out, alias)
		}
	}
	return out, nil
}

func (m *memStore) PrimaryOf(ctx context.Context, aliasID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	primary, ok := m.aliases[aliasID]
	return primary, ok, nil
}

// recordFor builds a record that bypasses ingestion.
func (m *memStore) recordFor(raw []byte) *models.MatchRecord {
	return &models.MatchRecord{PlayedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Data: raw}
}

// MockArchiver records enqueued matches.
type MockArchiver struct {
	EnqueueFunc func(matchID int64, fact GameFact) bool
	Enqueued    []int64
}

func (m *MockArchiver) Enqueue(matchID int64, fact GameFact) bool {
	m.Enqueued = append(m.Enqueued, matchID)
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(matchID, fact)
	}
	return true
}

func (m *MockArchiver) QueueDepth() int { return len(m.Enqueued) }

// testPlayer and testGame describe payloads for gameJSON.
type testPlayer struct {
	ID      string
	Nick    string
	Guesses []int // nil means the guess list is absent
}

type testGame struct {
	GameID    string
	Map       string
	Status    string
	Timestamp string
	Duration  int64
	Countries []string
	Points    []int
	Players   []testPlayer
}

func gameJSON(t *testing.T, g testGame) []byte {
	t.Helper()

	rounds := make([]map[string]any, 0, len(g.Points))
	for i, pts := range g.Points {
		r := map[string]any{
			"roundNumber": i + 1,
			"score":       map[string]any{"points": pts},
		}
		if i < len(g.Countries) {
			r["panorama"] = map[string]any{"countryCode": g.Countries[i]}
		}
		rounds = append(rounds, r)
	}

	players := make([]map[string]any, 0, len(g.Players))
	for _, p := range g.Players {
		pm := map[string]any{"playerId": p.ID, "nick": p.Nick}
		if p.Guesses != nil {
			guesses := make([]map[string]any, 0, len(p.Guesses))
			for i, pts := range p.Guesses {
				guesses = append(guesses, map[string]any{
					"roundNumber": i + 1,
					"score":       map[string]any{"points": pts},
				})
			}
			pm["guesses"] = guesses
		}
		players = append(players, pm)
	}

	state := map[string]any{
		"gameId":  g.GameID,
		"status":  g.Status,
		"mapName": g.Map,
		"rounds":  rounds,
		"players": players,
	}
	payload := map[string]any{
		"code":     "BullseyeStateUpdate",
		"gameId":   g.GameID,
		"bullseye": map[string]any{"state": state},
	}
	if g.Timestamp != "" {
		payload["timestamp"] = g.Timestamp
	}
	if g.Duration != 0 {
		payload["totalDuration"] = g.Duration
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func gameFact(t *testing.T, g testGame) GameFact {
	t.Helper()
	return Normalize(gameJSON(t, g), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

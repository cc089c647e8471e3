package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// formatTimestamp renders times as UTC ISO8601 so they sort as text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() {
	s.db.Close()
}

func (s *SQLite) InsertMatch(ctx context.Context, rec *models.MatchRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO games (game_id, map_name, score, round_time, total_duration, played_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.GameID, rec.MapName, rec.Score, rec.RoundTime, rec.TotalDuration, formatTimestamp(rec.PlayedAt), string(rec.Data))
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) ListMatches(ctx context.Context) ([]models.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, map_name, score, round_time, total_duration, played_at, data
		FROM games
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var rec models.MatchRecord
		var gameID, mapName sql.NullString
		var score, roundTime, duration sql.NullInt64
		var playedAt, data string
		if err := rows.Scan(&rec.ID, &gameID, &mapName, &score, &roundTime, &duration, &playedAt, &data); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.GameID = nullString(gameID)
		rec.MapName = nullString(mapName)
		rec.Score = nullInt(score)
		rec.RoundTime = nullInt(roundTime)
		rec.TotalDuration = nullInt(duration)
		// Rows written by other tools may carry a bad timestamp; zero is
		// still a usable fallback for normalization.
		rec.PlayedAt, _ = time.Parse(time.RFC3339Nano, playedAt)
		rec.Data = []byte(data)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLite) DeleteMatch(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) ScalarAggregates(ctx context.Context) (models.ScalarAggregates, error) {
	var agg models.ScalarAggregates
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0.0), COALESCE(SUM(total_duration), 0)
		FROM games
	`).Scan(&agg.Count, &agg.AvgScore, &agg.SumDuration)
	if err != nil {
		return agg, fmt.Errorf("aggregate games: %w", err)
	}
	return agg, nil
}

func (s *SQLite) UpsertPlayer(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, last_seen = excluded.last_seen
	`, id, name, formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (s *SQLite) AllPlayers(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM players`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	players := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players[id] = name
	}
	return players, rows.Err()
}

func (s *SQLite) PlayerName(ctx context.Context, id string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM players WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query player: %w", err)
	}
	return name, true, nil
}

func (s *SQLite) AliasEdges(ctx context.Context) ([]models.AliasEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alias_id, primary_id FROM player_aliases`)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	var edges []models.AliasEdge
	for rows.Next() {
		var e models.AliasEdge
		if err := rows.Scan(&e.AliasID, &e.PrimaryID); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *SQLite) UpsertAlias(ctx context.Context, aliasID, primaryID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_aliases (alias_id, primary_id) VALUES (?, ?)
		ON CONFLICT(alias_id) DO UPDATE SET primary_id = excluded.primary_id
	`, aliasID, primaryID)
	if err != nil {
		return fmt.Errorf("upsert alias: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteAlias(ctx context.Context, aliasID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM player_aliases WHERE alias_id = ?`, aliasID); err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	return nil
}

func (s *SQLite) AliasesOf(ctx context.Context, primaryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alias_id FROM player_aliases WHERE primary_id = ? ORDER BY alias_id`, primaryID)
	if err != nil {
		return nil, fmt.Errorf("query aliases of %s: %w", primaryID, err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, id)
	}
	return aliases, rows.Err()
}

func (s *SQLite) PrimaryOf(ctx context.Context, aliasID string) (string, bool, error) {
	var primary string
	err := s.db.QueryRowContext(ctx, `SELECT primary_id FROM player_aliases WHERE alias_id = ?`, aliasID).Scan(&primary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query primary of %s: %w", aliasID, err)
	}
	return primary, true, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

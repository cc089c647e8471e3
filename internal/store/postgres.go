package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type Postgres struct {
	pool  PgPool
	close func()
}

// OpenPostgres connects a pgx pool and creates missing tables.
func OpenPostgres(ctx context.Context, url string, maxConns int) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgres(pool)
	s.close = pool.Close
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing pool. The schema is left alone.
func NewPostgres(pool PgPool) *Postgres {
	return &Postgres{pool: pool, close: func() {}}
}

func (s *Postgres) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() {
	s.close()
}

func (s *Postgres) InsertMatch(ctx context.Context, rec *models.MatchRecord) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO games (game_id, map_name, score, round_time, total_duration, played_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rec.GameID, rec.MapName, rec.Score, rec.RoundTime, rec.TotalDuration, rec.PlayedAt, string(rec.Data)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id, nil
}

func (s *Postgres) ListMatches(ctx context.Context) ([]models.MatchRecord, error) {
	rows, err := s.pool.Query(ctx, `
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
		var data string
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.MapName, &rec.Score,
			&rec.RoundTime, &rec.TotalDuration, &rec.PlayedAt, &data); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.PlayedAt = rec.PlayedAt.UTC()
		rec.Data = []byte(data)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Postgres) DeleteMatch(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete game: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) ScalarAggregates(ctx context.Context) (models.ScalarAggregates, error) {
	var agg models.ScalarAggregates
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0)::float8, COALESCE(SUM(total_duration), 0)::bigint
		FROM games
	`).Scan(&agg.Count, &agg.AvgScore, &agg.SumDuration)
	if err != nil {
		return agg, fmt.Errorf("aggregate games: %w", err)
	}
	return agg, nil
}

func (s *Postgres) UpsertPlayer(ctx context.Context, id, name string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, name, last_seen) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, last_seen = EXCLUDED.last_seen
	`, id, name)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (s *Postgres) AllPlayers(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM players`)
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

func (s *Postgres) PlayerName(ctx context.Context, id string) (string, bool, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM players WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query player: %w", err)
	}
	return name, true, nil
}

func (s *Postgres) AliasEdges(ctx context.Context) ([]models.AliasEdge, error) {
	rows, err := s.pool.Query(ctx, `SELECT alias_id, primary_id FROM player_aliases`)
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

func (s *Postgres) UpsertAlias(ctx context.Context, aliasID, primaryID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO player_aliases (alias_id, primary_id) VALUES ($1, $2)
		ON CONFLICT (alias_id) DO UPDATE SET primary_id = EXCLUDED.primary_id
	`, aliasID, primaryID)
	if err != nil {
		return fmt.Errorf("upsert alias: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteAlias(ctx context.Context, aliasID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM player_aliases WHERE alias_id = $1`, aliasID); err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	return nil
}

func (s *Postgres) AliasesOf(ctx context.Context, primaryID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT alias_id FROM player_aliases WHERE primary_id = $1 ORDER BY alias_id`, primaryID)
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

func (s *Postgres) PrimaryOf(ctx context.Context, aliasID string) (string, bool, error) {
	var primary string
	err := s.pool.QueryRow(ctx, `SELECT primary_id FROM player_aliases WHERE alias_id = $1`, aliasID).Scan(&primary)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query primary of %s: %w", aliasID, err)
	}
	return primary, true, nil
}

// Package store persists match records, the player directory and alias
// edges in Postgres or SQLite.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bullseye-tracker/stats-api/internal/logic"
)

// Store is a record store backend.
type Store interface {
	logic.MatchStore
	logic.PlayerDirectory
	logic.AliasStore
	Ping(ctx context.Context) error
	Close()
}

// Open picks the backend from the URL scheme and creates the schema.
func Open(ctx context.Context, url string, maxConns int) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		pg, err := OpenPostgres(ctx, url, maxConns)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case strings.HasPrefix(url, "sqlite://"):
		lite, err := OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unsupported database url: %s", url)
	}
}

package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/logic"
)

// MaxBodySize limits the size of request bodies to 2MB
const MaxBodySize = 2 << 20

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Stats    logic.StatsService
	Identity logic.IdentityService
	Ingest   logic.IngestService

	// Optional dependencies; nil disables the feature.
	Archive     logic.RoundArchiver
	RateLimiter RateLimiter

	Database   Pinger
	ClickHouse Pinger

	APIKey string
	Logger *zap.Logger
}

type Handler struct {
	stats     logic.StatsService
	identity  logic.IdentityService
	ingest    logic.IngestService
	archive   logic.RoundArchiver
	limiter   RateLimiter
	db        Pinger
	ch        Pinger
	apiKey    string
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		stats:     cfg.Stats,
		identity:  cfg.Identity,
		ingest:    cfg.Ingest,
		archive:   cfg.Archive,
		limiter:   cfg.RateLimiter,
		db:        cfg.Database,
		ch:        cfg.ClickHouse,
		apiKey:    cfg.APIKey,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
	}
}

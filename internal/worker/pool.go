// Package worker mirrors ingested games into ClickHouse through a buffered
// worker pool. Ingestion never waits on it:
// - full queues shed load instead of blocking the request
// - rounds are written in batches
// - Stop drains and flushes whatever is queued
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/bullseye-tracker/stats-api/internal/logic"
)

// Prometheus metrics
var (
	gamesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bullseye_archive_games_enqueued_total",
		Help: "Total number of games queued for the round archive",
	})

	roundsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bullseye_archive_rounds_written_total",
		Help: "Total number of rounds written to ClickHouse",
	})

	gamesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bullseye_archive_games_failed_total",
		Help: "Total number of games whose batch failed to write",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bullseye_archive_queue_depth",
		Help: "Current depth of the archive queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bullseye_archive_batch_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	gamesLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bullseye_archive_load_shed_total",
		Help: "Total number of games dropped because the archive queue was full",
	})
)

const archiveTable = "bullseye_rounds"

// Job is one stored game waiting to be archived.
type Job struct {
	MatchID    int64
	Fact       logic.GameFact
	ReceivedAt time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool batches archive jobs into ClickHouse inserts.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	stopOnce sync.Once
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// EnsureSchema creates the archive table when it does not exist yet.
func EnsureSchema(ctx context.Context, conn driver.Conn) error {
	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+archiveTable+` (
			row_id        UUID,
			match_id      Int64,
			game_id       String,
			map_name      LowCardinality(String),
			round_number  UInt16,
			country_code  LowCardinality(String),
			points        UInt32,
			game_score    UInt32,
			is_finished   UInt8,
			player_ids    Array(String),
			played_at     DateTime64(3),
			archived_at   DateTime64(3)
		) ENGINE = ReplacingMergeTree(archived_at)
		ORDER BY (match_id, round_number)
	`)
	if err != nil {
		return fmt.Errorf("create %s: %w", archiveTable, err)
	}
	return nil
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Archive pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop closes the queue and waits for workers to flush.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping archive pool...")
		close(p.jobQueue)
		p.wg.Wait()
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Info("Archive pool stopped")
	})
}

// Enqueue queues a game without blocking. It returns false when the queue
// is full or the pool has stopped.
func (p *Pool) Enqueue(matchID int64, fact logic.GameFact) bool {
	job := Job{
		MatchID:    matchID,
		Fact:       fact,
		ReceivedAt: time.Now().UTC(),
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue game (pool stopped)", "match_id", matchID)
		}
	}()

	select {
	case p.jobQueue <- job:
		gamesEnqueued.Inc()
		return true
	default:
		gamesLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		rounds, err := p.processBatch(batch)
		if err != nil {
			p.logger.Errorw("Archive batch failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			gamesFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Archive batch written", "worker", id, "games", len(batch), "rounds", rounds, "duration", time.Since(start))
			roundsArchived.Add(float64(rounds))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch writes one row per round of every game in the batch and
// returns the number of rows sent.
func (p *Pool) processBatch(batch []Job) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO `+archiveTable+` (
			row_id, match_id, game_id, map_name, round_number, country_code,
			points, game_score, is_finished, player_ids, played_at, archived_at
		)
	`)
	if err != nil {
		return 0, err
	}

	rows := 0
	for _, job := range batch {
		for _, r := range roundRows(job) {
			err := chBatch.Append(
				r.RowID,
				r.MatchID,
				r.GameID,
				r.MapName,
				r.RoundNumber,
				r.CountryCode,
				r.Points,
				r.GameScore,
				r.IsFinished,
				r.PlayerIDs,
				r.PlayedAt,
				r.ArchivedAt,
			)
			if err != nil {
				p.logger.Warnw("Failed to append round to batch", "error", err, "match_id", job.MatchID)
				continue
			}
			rows++
		}
	}

	if rows == 0 {
		return 0, chBatch.Abort()
	}
	if err := chBatch.Send(); err != nil {
		return 0, err
	}
	return rows, nil
}

// roundRow is one archived round.
type roundRow struct {
	RowID       uuid.UUID
	MatchID     int64
	GameID      string
	MapName     string
	RoundNumber uint16
	CountryCode string
	Points      uint32
	GameScore   uint32
	IsFinished  uint8
	PlayerIDs   []string
	PlayedAt    time.Time
	ArchivedAt  time.Time
}

func roundRows(job Job) []roundRow {
	fact := &job.Fact
	players := fact.PlayerIDs()
	finished := uint8(0)
	if fact.Finished {
		finished = 1
	}

	rows := make([]roundRow, 0, len(fact.Rounds))
	for i, r := range fact.Rounds {
		number := r.Number
		if number <= 0 {
			number = i + 1
		}
		rows = append(rows, roundRow{
			RowID:       roundRowID(job.MatchID, number),
			MatchID:     job.MatchID,
			GameID:      fact.GameID,
			MapName:     fact.MapName,
			RoundNumber: uint16(number),
			CountryCode: strings.ToLower(strings.TrimSpace(r.CountryCode)),
			Points:      clampPoints(r.Points),
			GameScore:   clampPoints(fact.Score),
			IsFinished:  finished,
			PlayerIDs:   players,
			PlayedAt:    fact.PlayedAt,
			ArchivedAt:  job.ReceivedAt,
		})
	}
	return rows
}

// roundRowID is stable per (match, round) so re-archiving a game replaces
// its rows.
func roundRowID(matchID int64, round int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("bullseye:%d:%d", matchID, round)))
}

func clampPoints(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

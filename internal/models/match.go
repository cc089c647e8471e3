package models

import "time"

// MatchRecord is one stored match submission. Rows are immutable after insert
// apart from deletion; Data holds the submitted payload verbatim.
type MatchRecord struct {
	ID            int64
	GameID        *string
	MapName       *string
	Score         *int64
	RoundTime     *int64
	TotalDuration *int64
	PlayedAt      time.Time
	Data          []byte
}

// ScalarAggregates are whole-table totals computed by the record store.
type ScalarAggregates struct {
	Count       int64
	AvgScore    float64
	SumDuration int64
}

// AliasEdge redirects AliasID to PrimaryID.
type AliasEdge struct {
	AliasID   string
	PrimaryID string
}

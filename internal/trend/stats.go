// Package trend implements the behavioral memory layer for BlockID.
//
// Trust is not a single snapshot. Each scoring cycle computes rolling 7d/30d
// stats for a wallet (volume, tx count, anomalies, alerts, average trust
// score), persists them as immutable snapshots, and compares the current
// cycle against a historical baseline (median of prior snapshots) using
// rule-based thresholds. The result is a trend verdict, a behavioral-shift
// flag, explainable reasons, and a reputation decay factor over inactivity.
// All deterministic and explainable. No ML.
package trend

import "context"

// SecondsPerDay converts window days to unix-second spans.
const SecondsPerDay = 86400

// RollingStats is one wallet's behavior over a trailing window.
// Snapshots are immutable historical facts: one row per
// (wallet, window_days, period_end_ts), never mutated after creation.
type RollingStats struct {
	Wallet       string `json:"wallet"`
	PeriodEndTS  int64  `json:"periodEndTs"`
	WindowDays   int    `json:"windowDays"`
	Volume       uint64 `json:"volume"` // lamports
	TxCount      uint32 `json:"txCount"`
	AnomalyCount uint32 `json:"anomalyCount"`
	// AvgTrustScore is nil when no scores exist in the window. Absent and
	// "measured zero" are different states and must stay distinguishable.
	AvgTrustScore *float64 `json:"avgTrustScore,omitempty"`
	AlertCount    uint32   `json:"alertCount"`
}

// Transaction is a single transfer as supplied by the history provider.
type Transaction struct {
	Amount    uint64 // lamports
	Timestamp int64
}

// ScorePoint is one entry of a wallet's trust score timeline. The anomaly
// flag is parsed from score metadata once, at the storage boundary; the
// trend engine never re-parses loosely-typed JSON.
type ScorePoint struct {
	Score       *float64
	IsAnomalous bool
	ComputedAt  int64
}

// HistoryProvider supplies the windowed wallet history the rolling stats
// calculator reads. Both window bounds are inclusive.
type HistoryProvider interface {
	TransactionHistory(ctx context.Context, wallet string, sinceTS, untilTS int64, limit int) ([]Transaction, error)
	ScoreTimeline(ctx context.Context, wallet string, sinceTS, untilTS int64, limit int) ([]ScorePoint, error)
	AlertCount(ctx context.Context, wallet string, sinceTS, untilTS int64) (int, error)
}

// StatsStore persists rolling stats snapshots.
type StatsStore interface {
	// History returns up to limit snapshots for (wallet, windowDays),
	// newest first.
	History(ctx context.Context, wallet string, windowDays, limit int) ([]RollingStats, error)

	// Upsert persists a snapshot, keyed by (wallet, window_days,
	// period_end_ts). Re-running a crashed cycle overwrites the same row,
	// so partial updates self-heal on the next cycle.
	Upsert(ctx context.Context, stats RollingStats) error
}

// Profile is the slice of the wallet profile the decay calculator needs.
type Profile struct {
	Wallet     string
	LastSeenAt int64
}

// ProfileStore reads wallet profiles.
type ProfileStore interface {
	// Profile returns nil (not an error) for unknown wallets.
	Profile(ctx context.Context, wallet string) (*Profile, error)
}

package trend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Query limits for a single rolling window. High-activity wallets are
// truncated rather than scanned unboundedly.
const (
	txHistoryLimit     = 50_000
	scoreTimelineLimit = 10_000
)

// Calculator computes rolling window stats from externally supplied history.
// Deterministic given identical inputs; no caching, no hidden state.
type Calculator struct {
	provider HistoryProvider
	logger   *slog.Logger
}

// NewCalculator creates a rolling stats calculator.
func NewCalculator(provider HistoryProvider, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{provider: provider, logger: logger}
}

// Compute returns the wallet's rolling stats over
// [nowTS - windowDays*86400, nowTS], both bounds inclusive.
func (c *Calculator) Compute(ctx context.Context, wallet string, nowTS int64, windowDays int) (RollingStats, error) {
	sinceTS := nowTS - int64(windowDays)*SecondsPerDay

	history, err := c.provider.TransactionHistory(ctx, wallet, sinceTS, nowTS, txHistoryLimit)
	if err != nil {
		return RollingStats{}, fmt.Errorf("transaction history: %w", err)
	}
	var volume uint64
	for _, tx := range history {
		volume += tx.Amount
	}

	timeline, err := c.provider.ScoreTimeline(ctx, wallet, sinceTS, nowTS, scoreTimelineLimit)
	if err != nil {
		return RollingStats{}, fmt.Errorf("score timeline: %w", err)
	}
	var (
		scoreSum     float64
		scoreCount   int
		anomalyCount uint32
	)
	for _, p := range timeline {
		if p.Score != nil {
			scoreSum += *p.Score
			scoreCount++
		}
		if p.IsAnomalous {
			anomalyCount++
		}
	}
	var avgScore *float64
	if scoreCount > 0 {
		avg := round2(scoreSum / float64(scoreCount))
		avgScore = &avg
	}

	alerts, err := c.provider.AlertCount(ctx, wallet, sinceTS, nowTS)
	if err != nil {
		return RollingStats{}, fmt.Errorf("alert count: %w", err)
	}

	return RollingStats{
		Wallet:        wallet,
		PeriodEndTS:   nowTS,
		WindowDays:    windowDays,
		Volume:        volume,
		TxCount:       uint32(len(history)),
		AnomalyCount:  anomalyCount,
		AvgTrustScore: avgScore,
		AlertCount:    uint32(alerts),
	}, nil
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round4 rounds to 4 decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

package trend

import (
	"context"
	"fmt"
	"sort"
)

// Baseline history bounds. A baseline needs at least MinBaselinePeriods
// prior snapshots and uses at most BaselinePeriods of the most recent ones.
const (
	MinBaselinePeriods = 2
	BaselinePeriods    = 8
)

// BaselineResolver derives a wallet's historical "normal" behavior as the
// per-field median of its most recent prior snapshots.
type BaselineResolver struct {
	store      StatsStore
	minPeriods int
	numPeriods int
}

// NewBaselineResolver creates a resolver with the default period bounds.
func NewBaselineResolver(store StatsStore) *BaselineResolver {
	return &BaselineResolver{
		store:      store,
		minPeriods: MinBaselinePeriods,
		numPeriods: BaselinePeriods,
	}
}

// Resolve returns the baseline for (wallet, windowDays), or nil when fewer
// than minPeriods prior snapshots exist. Insufficient history is the common
// case for new wallets, not an error.
//
// The resolver must run before the current cycle's snapshot is persisted so
// the history it sees is strictly historical.
func (r *BaselineResolver) Resolve(ctx context.Context, wallet string, windowDays int) (*RollingStats, error) {
	rows, err := r.store.History(ctx, wallet, windowDays, r.numPeriods)
	if err != nil {
		return nil, fmt.Errorf("rolling stats history: %w", err)
	}
	if len(rows) < r.minPeriods {
		return nil, nil
	}

	volumes := make([]uint64, 0, len(rows))
	txCounts := make([]uint32, 0, len(rows))
	anomalyCounts := make([]uint32, 0, len(rows))
	alertCounts := make([]uint32, 0, len(rows))
	var avgScores []float64
	for _, row := range rows {
		volumes = append(volumes, row.Volume)
		txCounts = append(txCounts, row.TxCount)
		anomalyCounts = append(anomalyCounts, row.AnomalyCount)
		alertCounts = append(alertCounts, row.AlertCount)
		if row.AvgTrustScore != nil {
			avgScores = append(avgScores, *row.AvgTrustScore)
		}
	}

	// PeriodEndTS is 0: a baseline is a derived value, not a snapshot of
	// any particular period.
	baseline := &RollingStats{
		Wallet:       wallet,
		PeriodEndTS:  0,
		WindowDays:   windowDays,
		Volume:       medianUint64(volumes),
		TxCount:      medianUint32(txCounts),
		AnomalyCount: medianUint32(anomalyCounts),
		AlertCount:   medianUint32(alertCounts),
	}
	if len(avgScores) > 0 {
		m := round2(medianFloat64(avgScores))
		baseline.AvgTrustScore = &m
	}
	return baseline, nil
}

// Median rules follow standard statistics-library semantics: odd count takes
// the middle element, even count takes the midpoint average of the two
// middle elements (truncated toward zero for the integer fields).

func medianFloat64(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func medianUint64(values []uint64) uint64 {
	s := append([]uint64(nil), values...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func medianUint32(values []uint32) uint32 {
	s := append([]uint32(nil), values...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

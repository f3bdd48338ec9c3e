package reasons

import (
	"log/slog"

	"github.com/blockid/trustd/internal/metrics"
)

// Aggregator combines a base score with weighted reasons into a final
// clamped trust score. All methods are pure; a malformed reason never
// aborts the computation.
type Aggregator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewAggregator creates an aggregator bound to the given registry.
func NewAggregator(registry *Registry, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{registry: registry, logger: logger}
}

// Registry returns the weight table the aggregator was built with.
func (a *Aggregator) Registry() *Registry {
	return a.registry
}

// Aggregate combines baseScore with the reasons and returns the final score
// clamped to [0, 100].
//
// Reasons are deduplicated by code in input order: the first occurrence
// wins. A nil weight contributes 0 and is logged as a data-quality anomaly.
func (a *Aggregator) Aggregate(baseScore int, reasons []WeightedReason) int {
	totalWeight := 0
	seen := make(map[string]bool, len(reasons))
	for _, r := range reasons {
		if r.Code != "" {
			if seen[r.Code] {
				continue
			}
			seen[r.Code] = true
		}
		if r.Weight == nil {
			metrics.ReasonAnomaliesTotal.Inc()
			a.logger.Warn("reason missing weight, contributing zero",
				"reason_code", r.Code,
				"registered", a.registry.Has(r.Code))
			continue
		}
		totalWeight += *r.Weight
	}
	return ClampScore(baseScore + totalWeight)
}

// Explanation is the full arithmetic trace behind a final score.
// FinalScore is always exactly Aggregate(BaseScore, reasons).
type Explanation struct {
	BaseScore     int            `json:"baseScore"`
	ReasonWeights []ReasonWeight `json:"reasonWeights"`
	FinalScore    int            `json:"finalScore"`
}

// ReasonWeight is one reason's contribution in an explanation.
type ReasonWeight struct {
	Code   string `json:"code"`
	Weight int    `json:"weight"`
}

// Explain returns the explanation trace for baseScore and reasons.
// Every input reason appears in the trace, including duplicates that
// did not contribute, so callers see exactly what was supplied.
func (a *Aggregator) Explain(baseScore int, reasons []WeightedReason) *Explanation {
	weights := make([]ReasonWeight, 0, len(reasons))
	for _, r := range reasons {
		w := 0
		if r.Weight != nil {
			w = *r.Weight
		}
		weights = append(weights, ReasonWeight{Code: r.Code, Weight: w})
	}
	return &Explanation{
		BaseScore:     baseScore,
		ReasonWeights: weights,
		FinalScore:    a.Aggregate(baseScore, reasons),
	}
}

// ClampScore clamps a score to the valid [0, 100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

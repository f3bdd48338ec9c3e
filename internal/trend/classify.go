package trend

import "strconv"

// Trend is the verdict of comparing a current cycle against its baseline.
type Trend string

const (
	TrendUp              Trend = "trend_up"
	TrendDown            Trend = "trend_down"
	TrendStable          Trend = "stable"
	TrendBehavioralShift Trend = "behavioral_shift_detected"
)

// Classification thresholds.
const (
	// ScoreDeltaThreshold is the trust-score delta (points) that flips the
	// verdict to trend_up / trend_down.
	ScoreDeltaThreshold = 5.0
	// ShiftRatio is the current/baseline ratio that flags a behavioral
	// shift. Volume and tx count trigger on both >= ShiftRatio and
	// <= 1/ShiftRatio; anomaly and alert counts only on the high side
	// (a drop in anomalies is good, not noteworthy).
	ShiftRatio = 2.0
)

// ReasonKind discriminates structured classification reasons.
type ReasonKind string

const (
	ReasonNoBaseline    ReasonKind = "no_baseline"
	ReasonScoreDelta    ReasonKind = "score_delta"
	ReasonRatioShift    ReasonKind = "ratio_shift"
	ReasonFirstBaseline ReasonKind = "first_baseline"
)

// Reason is one structured classification note. It stays machine-readable
// internally (kind, metric, value) and renders to a display string only at
// the boundary, so callers and tests never have to parse text.
type Reason struct {
	Kind      ReasonKind `json:"kind"`
	Metric    string     `json:"metric,omitempty"`
	Direction string     `json:"direction,omitempty"`
	Value     float64    `json:"value,omitempty"`
}

// String renders the display form used in API responses and logs.
func (r Reason) String() string {
	switch r.Kind {
	case ReasonNoBaseline:
		return "no_baseline_insufficient_history"
	case ReasonScoreDelta:
		return "trust_score_" + r.Direction + "_delta=" + formatFixed(r.Value)
	case ReasonRatioShift:
		return r.Metric + "_ratio=" + formatFixed(r.Value)
	case ReasonFirstBaseline:
		return "first_baseline_or_stable"
	}
	return string(r.Kind)
}

// MarshalJSON emits the rendered string; the on-wire reasons list is a list
// of display strings.
func (r Reason) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, r.String()), nil
}

// formatFixed renders a 2dp-rounded value with at least one decimal place
// ("-30.0", "2.5"), matching the format published by the oracle.
func formatFixed(v float64) string {
	s := strconv.FormatFloat(round2(v), 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

// Classify compares the current cycle against its baseline and returns the
// trend verdict, the behavioral-shift flag, and structured reasons.
//
// An absent baseline yields a stable verdict with an explicit
// insufficient-history reason; it is an observable state, not an error.
func Classify(current RollingStats, baseline *RollingStats) (Trend, bool, []Reason) {
	if baseline == nil {
		return TrendStable, false, []Reason{{Kind: ReasonNoBaseline}}
	}

	var reasons []Reason

	// Trust score delta, only when both sides have a measured average.
	var delta float64
	haveDelta := current.AvgTrustScore != nil && baseline.AvgTrustScore != nil
	if haveDelta {
		delta = *current.AvgTrustScore - *baseline.AvgTrustScore
		switch {
		case delta >= ScoreDeltaThreshold:
			reasons = append(reasons, Reason{Kind: ReasonScoreDelta, Metric: "trust_score", Direction: "up", Value: delta})
		case delta <= -ScoreDeltaThreshold:
			reasons = append(reasons, Reason{Kind: ReasonScoreDelta, Metric: "trust_score", Direction: "down", Value: delta})
		default:
			reasons = append(reasons, Reason{Kind: ReasonScoreDelta, Metric: "trust_score", Direction: "stable", Value: delta})
		}
	}

	// Behavioral shift ratios. Volume and tx count are two-sided; anomaly
	// and alert counts are one-sided with a zero baseline denominated by 1,
	// so any nonzero current still registers.
	shift := false
	if ratio, ok := twoSidedRatio(float64(current.Volume), float64(baseline.Volume)); ok {
		shift = true
		reasons = append(reasons, Reason{Kind: ReasonRatioShift, Metric: "volume", Value: ratio})
	}
	if ratio, ok := twoSidedRatio(float64(current.TxCount), float64(baseline.TxCount)); ok {
		shift = true
		reasons = append(reasons, Reason{Kind: ReasonRatioShift, Metric: "tx_count", Value: ratio})
	}
	if ratio, ok := highSidedRatio(float64(current.AnomalyCount), float64(baseline.AnomalyCount)); ok {
		shift = true
		reasons = append(reasons, Reason{Kind: ReasonRatioShift, Metric: "anomaly_count", Value: ratio})
	}
	if ratio, ok := highSidedRatio(float64(current.AlertCount), float64(baseline.AlertCount)); ok {
		shift = true
		reasons = append(reasons, Reason{Kind: ReasonRatioShift, Metric: "alert_count", Value: ratio})
	}

	if shift {
		return TrendBehavioralShift, true, reasons
	}
	if haveDelta {
		if delta >= ScoreDeltaThreshold {
			return TrendUp, false, reasons
		}
		if delta <= -ScoreDeltaThreshold {
			return TrendDown, false, reasons
		}
	}
	return TrendStable, false, reasons
}

// twoSidedRatio returns (ratio, true) when current/baseline falls outside
// [1/ShiftRatio, ShiftRatio], bounds inclusive. No ratio is computed for a
// zero baseline.
func twoSidedRatio(current, baseline float64) (float64, bool) {
	if baseline <= 0 {
		return 0, false
	}
	ratio := current / baseline
	if ratio >= ShiftRatio || ratio <= 1/ShiftRatio {
		return ratio, true
	}
	return 0, false
}

// highSidedRatio returns (ratio, true) when current/baseline >= ShiftRatio.
// A zero baseline is treated as a denominator of one.
func highSidedRatio(current, baseline float64) (float64, bool) {
	denom := baseline
	if denom <= 0 {
		denom = 1
	}
	ratio := current / denom
	if ratio >= ShiftRatio {
		return ratio, true
	}
	return 0, false
}

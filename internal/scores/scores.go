// Package scores implements trust score computation for BlockID.
//
// A wallet's trust score is calculated from explainable inputs:
// - A base score supplied by the upstream feature pipeline
// - Weighted reason codes recorded against the wallet
// - Behavioral trend over rolling 7d/30d windows
//
// Every score maps to a coarse risk level that becomes the risk byte of
// the published on-chain account.
package scores

import (
	"context"
	"time"

	"github.com/blockid/trustd/internal/reasons"
)

// RiskLevel is the coarse verdict derived from a trust score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"    // score > 80
	RiskMedium RiskLevel = "MEDIUM" // 50 <= score <= 80
	RiskHigh   RiskLevel = "HIGH"   // score < 50
	// RiskCritical is reserved for manual flagging; the score mapping
	// never produces it.
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps a clamped trust score to its risk level.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score > 80:
		return RiskLow
	case score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Byte returns the risk level's wire encoding for the on-chain account.
func (r RiskLevel) Byte() uint8 {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// TrustScore is one computed score on a wallet's timeline.
type TrustScore struct {
	Wallet      string    `json:"wallet"`
	BaseScore   int       `json:"baseScore"`
	Score       int       `json:"score"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	IsAnomalous bool      `json:"isAnomalous"`
	ComputedAt  time.Time `json:"computedAt"`
}

// Store persists the score timeline and the recorded reasons per wallet.
type Store interface {
	// InsertScore appends a score to the wallet's timeline.
	InsertScore(ctx context.Context, score *TrustScore) error

	// LatestScore returns the newest score for a wallet, or nil when the
	// wallet has never been scored.
	LatestScore(ctx context.Context, wallet string) (*TrustScore, error)

	// ReplaceReasons swaps the wallet's recorded reason set atomically.
	ReplaceReasons(ctx context.Context, wallet string, rs []reasons.WeightedReason) error

	// Reasons returns the wallet's current reason set in recording order.
	Reasons(ctx context.Context, wallet string) ([]reasons.WeightedReason, error)

	// ActiveWallets lists wallets scored since the given time, for
	// periodic recomputation.
	ActiveWallets(ctx context.Context, since time.Time, limit int) ([]string, error)
}

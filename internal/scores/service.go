package scores

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockid/trustd/internal/metrics"
	"github.com/blockid/trustd/internal/reasons"
	"github.com/blockid/trustd/internal/syncutil"
	"github.com/blockid/trustd/internal/traces"
	"github.com/blockid/trustd/internal/trend"
)

// Broadcaster pushes score events to live subscribers. Implemented by the
// realtime hub; nil disables broadcasting.
type Broadcaster interface {
	BroadcastScoreUpdate(update map[string]interface{})
	BroadcastBehavioralShift(alert map[string]interface{})
}

// Result is the full outcome of one scoring cycle.
type Result struct {
	Score       *TrustScore          `json:"score"`
	Explanation *reasons.Explanation `json:"explanation"`
	Trend       *trend.Result        `json:"trend"`
}

// Service runs the scoring pipeline: aggregate reasons onto a base score,
// stamp the risk level, persist the timeline entry, update behavioral
// memory, and notify subscribers.
type Service struct {
	aggregator  *reasons.Aggregator
	store       Store
	engine      *trend.Engine
	profiles    trend.ProfileStore
	broadcaster Broadcaster
	logger      *slog.Logger
	now         func() time.Time

	// computeLocks serializes scoring cycles per wallet. The timeline insert
	// and the trend upsert must not interleave for the same wallet.
	computeLocks *syncutil.ContextShardedMutex
}

// NewService creates a scoring service. profiles may be nil when no profile
// data exists; reputation decay then defaults to no decay.
func NewService(aggregator *reasons.Aggregator, store Store, engine *trend.Engine, profiles trend.ProfileStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		aggregator:   aggregator,
		store:        store,
		engine:       engine,
		profiles:     profiles,
		logger:       logger,
		now:          time.Now,
		computeLocks: syncutil.NewContextShardedMutex(),
	}
}

// WithBroadcaster attaches a live event sink.
func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.broadcaster = b
	return s
}

// Compute runs one scoring cycle for a wallet.
//
// The timeline insert happens before the trend cycle so the freshly
// computed score is visible in the current rolling window, matching how
// the baselines only ever see fully persisted periods.
func (s *Service) Compute(ctx context.Context, wallet string, baseScore int, isAnomalous bool) (*Result, error) {
	ctx, span := traces.StartSpan(ctx, "scores.compute", traces.Wallet(wallet))
	defer span.End()
	timer := prometheus.NewTimer(metrics.ScoreComputeDuration)
	defer timer.ObserveDuration()

	unlock, err := s.computeLocks.LockContext(ctx, wallet)
	if err != nil {
		return nil, err
	}
	defer unlock()

	recorded, err := s.store.Reasons(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load reasons: %w", err)
	}

	explanation := s.aggregator.Explain(baseScore, recorded)
	final := explanation.FinalScore
	riskLevel := RiskLevelFor(final)
	span.SetAttributes(traces.Score(float64(final)), traces.RiskLevel(string(riskLevel)))

	now := s.now().UTC()
	score := &TrustScore{
		Wallet:      wallet,
		BaseScore:   baseScore,
		Score:       final,
		RiskLevel:   riskLevel,
		IsAnomalous: isAnomalous,
		ComputedAt:  now,
	}
	if err := s.store.InsertScore(ctx, score); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}

	var profile *trend.Profile
	if s.profiles != nil {
		profile, err = s.profiles.Profile(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}

	trendResult, err := s.engine.UpdateAndGetTrend(ctx, wallet, float64(final), isAnomalous, now.Unix(), profile)
	if err != nil {
		return nil, fmt.Errorf("update trend: %w", err)
	}

	metrics.ScoresComputedTotal.WithLabelValues(string(riskLevel)).Inc()
	s.broadcastResult(score, trendResult)

	s.logger.Info("trust score computed",
		"wallet", shortWallet(wallet),
		"base_score", baseScore,
		"score", final,
		"risk_level", riskLevel,
		"trend", trendResult.Trend,
		"behavioral_shift", trendResult.BehavioralShiftDetected)

	return &Result{Score: score, Explanation: explanation, Trend: trendResult}, nil
}

// Latest returns the wallet's newest score, or nil when never scored.
func (s *Service) Latest(ctx context.Context, wallet string) (*TrustScore, error) {
	return s.store.LatestScore(ctx, wallet)
}

// Explain re-derives the arithmetic trace behind the wallet's latest score
// from its stored base score and current reason set. Returns nil when the
// wallet has never been scored.
func (s *Service) Explain(ctx context.Context, wallet string) (*reasons.Explanation, error) {
	latest, err := s.store.LatestScore(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	recorded, err := s.store.Reasons(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load reasons: %w", err)
	}
	return s.aggregator.Explain(latest.BaseScore, recorded), nil
}

// Trend runs a trend cycle seeded from the wallet's latest score. Returns
// nil when the wallet has never been scored.
func (s *Service) Trend(ctx context.Context, wallet string) (*trend.Result, error) {
	latest, err := s.store.LatestScore(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}

	var profile *trend.Profile
	if s.profiles != nil {
		profile, err = s.profiles.Profile(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}
	return s.engine.UpdateAndGetTrend(ctx, wallet, float64(latest.Score), latest.IsAnomalous, s.now().Unix(), profile)
}

// RecordReasons replaces the wallet's reason set. Codes absent from the
// registry are accepted but logged; the upstream pipeline may run ahead of
// a registry deploy.
func (s *Service) RecordReasons(ctx context.Context, wallet string, rs []reasons.WeightedReason) error {
	for _, r := range rs {
		if !s.aggregator.Registry().Has(r.Code) {
			s.logger.Warn("unregistered reason code recorded",
				"wallet", shortWallet(wallet), "reason_code", r.Code)
		}
	}
	return s.store.ReplaceReasons(ctx, wallet, rs)
}

func (s *Service) broadcastResult(score *TrustScore, trendResult *trend.Result) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastScoreUpdate(map[string]interface{}{
		"wallet":    score.Wallet,
		"score":     float64(score.Score),
		"riskLevel": string(score.RiskLevel),
		"trend":     string(trendResult.Trend),
	})
	if trendResult.BehavioralShiftDetected {
		s.broadcaster.BroadcastBehavioralShift(map[string]interface{}{
			"wallet":  score.Wallet,
			"score":   float64(score.Score),
			"reasons": trendResult.ReasonStrings(),
		})
	}
}

// shortWallet truncates a wallet address for log lines.
func shortWallet(wallet string) string {
	if len(wallet) > 16 {
		return wallet[:16] + "..."
	}
	return wallet
}

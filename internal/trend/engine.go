package trend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blockid/trustd/internal/metrics"
	"github.com/blockid/trustd/internal/traces"
)

// Window sizes computed every cycle.
const (
	ShortWindowDays = 7
	LongWindowDays  = 30
)

// Result is the composite outcome of one trend cycle. Both windows' currents
// and baselines are attached regardless of which window drove the
// classification, so callers retain full observability.
type Result struct {
	Trend                   Trend         `json:"trend"`
	BehavioralShiftDetected bool          `json:"behavioralShiftDetected"`
	Reasons                 []Reason      `json:"reasons"`
	Baseline7d              *RollingStats `json:"baseline7d,omitempty"`
	Baseline30d             *RollingStats `json:"baseline30d,omitempty"`
	Current7d               *RollingStats `json:"current7d,omitempty"`
	Current30d              *RollingStats `json:"current30d,omitempty"`
	ReputationDecay         float64       `json:"reputationDecay"`
}

// ReasonStrings renders the reasons list to display strings.
func (r *Result) ReasonStrings() []string {
	out := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		out[i] = reason.String()
	}
	return out
}

// Engine orchestrates one behavioral memory cycle per wallet: compute
// current rolling stats, resolve baselines, persist snapshots, classify,
// decay. The engine has no shared mutable state; running many wallets in
// parallel needs no coordination. Callers that need at-most-one concurrent
// update per wallet must serialize externally.
type Engine struct {
	calc      *Calculator
	baselines *BaselineResolver
	store     StatsStore
	logger    *slog.Logger

	// preferredWindow drives classification when its baseline exists;
	// the other window is the fallback. Defaults to the 30d window, which
	// is more stable once enough history accumulates.
	preferredWindow int
}

// NewEngine creates a trend engine over the given history provider and
// snapshot store.
func NewEngine(provider HistoryProvider, store StatsStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		calc:            NewCalculator(provider, logger),
		baselines:       NewBaselineResolver(store),
		store:           store,
		logger:          logger,
		preferredWindow: LongWindowDays,
	}
}

// WithPreferredWindow overrides which window drives classification when its
// baseline exists. Accepts ShortWindowDays or LongWindowDays.
func (e *Engine) WithPreferredWindow(days int) *Engine {
	if days == ShortWindowDays || days == LongWindowDays {
		e.preferredWindow = days
	}
	return e
}

// UpdateAndGetTrend runs one full cycle for a wallet.
//
// Snapshot writes are idempotent upserts keyed by (wallet, window,
// period_end_ts); a crash between the 7d and 30d writes self-heals on the
// next cycle. Classification uses the freshly computed in-memory values,
// not a re-read, so the write and the classification need not be atomic.
func (e *Engine) UpdateAndGetTrend(
	ctx context.Context,
	wallet string,
	currentScore float64,
	isAnomalous bool,
	nowTS int64,
	profile *Profile,
) (*Result, error) {
	if nowTS == 0 {
		nowTS = time.Now().Unix()
	}
	ctx, span := traces.StartSpan(ctx, "trend.update_and_get_trend",
		traces.Wallet(wallet), traces.Score(currentScore))
	defer span.End()

	current7d, err := e.calc.Compute(ctx, wallet, nowTS, ShortWindowDays)
	if err != nil {
		return nil, fmt.Errorf("compute 7d stats: %w", err)
	}
	current30d, err := e.calc.Compute(ctx, wallet, nowTS, LongWindowDays)
	if err != nil {
		return nil, fmt.Errorf("compute 30d stats: %w", err)
	}

	// Baselines must be resolved before the new snapshots land so they
	// only ever see strictly historical periods.
	baseline7d, err := e.baselines.Resolve(ctx, wallet, ShortWindowDays)
	if err != nil {
		return nil, fmt.Errorf("resolve 7d baseline: %w", err)
	}
	baseline30d, err := e.baselines.Resolve(ctx, wallet, LongWindowDays)
	if err != nil {
		return nil, fmt.Errorf("resolve 30d baseline: %w", err)
	}

	if err := e.store.Upsert(ctx, current7d); err != nil {
		return nil, fmt.Errorf("persist 7d snapshot: %w", err)
	}
	if err := e.store.Upsert(ctx, current30d); err != nil {
		return nil, fmt.Errorf("persist 30d snapshot: %w", err)
	}
	metrics.SnapshotsPersistedTotal.Add(2)

	current, baseline := current30d, baseline30d
	fallbackCurrent, fallbackBaseline := current7d, baseline7d
	if e.preferredWindow == ShortWindowDays {
		current, baseline = current7d, baseline7d
		fallbackCurrent, fallbackBaseline = current30d, baseline30d
	}
	if baseline == nil {
		current, baseline = fallbackCurrent, fallbackBaseline
	}

	verdict, shift, reasons := Classify(current, baseline)
	if len(reasons) == 0 {
		reasons = append(reasons, Reason{Kind: ReasonFirstBaseline})
	}
	if shift {
		metrics.BehavioralShiftsTotal.Inc()
	}

	result := &Result{
		Trend:                   verdict,
		BehavioralShiftDetected: shift,
		Reasons:                 reasons,
		Baseline7d:              baseline7d,
		Baseline30d:             baseline30d,
		Current7d:               &current7d,
		Current30d:              &current30d,
		ReputationDecay:         round4(DecayFactor(profile, nowTS)),
	}

	e.logger.Debug("behavioral memory cycle completed",
		"wallet", shortWallet(wallet),
		"trend", verdict,
		"behavioral_shift", shift,
		"current_score", currentScore,
		"is_anomalous", isAnomalous,
		"reputation_decay", result.ReputationDecay)
	return result, nil
}

// shortWallet truncates a wallet address for log lines.
func shortWallet(wallet string) string {
	if len(wallet) > 16 {
		return wallet[:16] + "..."
	}
	return wallet
}

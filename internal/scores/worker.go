package scores

import (
	"context"
	"log/slog"
	"time"
)

// BaseScoreProvider supplies the upstream base score for a wallet. In
// production this fronts the feature pipeline; in dev mode it is a stub.
type BaseScoreProvider interface {
	BaseScore(ctx context.Context, wallet string) (score int, isAnomalous bool, err error)
}

// Worker periodically re-runs the scoring cycle for recently active wallets
// so behavioral memory keeps accumulating even without API traffic.
type Worker struct {
	service  *Service
	provider BaseScoreProvider
	interval time.Duration
	lookback time.Duration
	logger   *slog.Logger
	stop     chan struct{}
}

// NewWorker creates a rescoring worker.
// interval is typically 1 hour in production, 10 seconds in demo mode.
func NewWorker(service *Service, provider BaseScoreProvider, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		service:  service,
		provider: provider,
		interval: interval,
		lookback: 30 * 24 * time.Hour,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start begins the rescoring loop. Call in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on start
	w.rescore(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.rescore(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *Worker) Stop() {
	select {
	case w.stop <- struct{}{}:
	default:
	}
}

func (w *Worker) rescore(ctx context.Context) {
	wallets, err := w.service.store.ActiveWallets(ctx, time.Now().Add(-w.lookback), 1000)
	if err != nil {
		w.logger.Warn("rescore failed to list active wallets", "error", err)
		return
	}

	if len(wallets) == 0 {
		return
	}

	rescored := 0
	for _, wallet := range wallets {
		base, anomalous, err := w.provider.BaseScore(ctx, wallet)
		if err != nil {
			w.logger.Warn("rescore failed to get base score",
				"wallet", shortWallet(wallet), "error", err)
			continue
		}
		if _, err := w.service.Compute(ctx, wallet, base, anomalous); err != nil {
			w.logger.Warn("rescore cycle failed",
				"wallet", shortWallet(wallet), "error", err)
			continue
		}
		rescored++
	}

	w.logger.Info("rescore pass completed", "wallets", rescored)
}

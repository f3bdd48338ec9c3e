package scores

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blockid/trustd/internal/reasons"
	"github.com/blockid/trustd/internal/trend"
)

// stubHistory is an empty history provider: no transactions, no timeline,
// no alerts.
type stubHistory struct{}

func (stubHistory) TransactionHistory(context.Context, string, int64, int64, int) ([]trend.Transaction, error) {
	return nil, nil
}

func (stubHistory) ScoreTimeline(context.Context, string, int64, int64, int) ([]trend.ScorePoint, error) {
	return nil, nil
}

func (stubHistory) AlertCount(context.Context, string, int64, int64) (int, error) {
	return 0, nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []map[string]interface{}
	shifts  []map[string]interface{}
}

func (b *recordingBroadcaster) BroadcastScoreUpdate(update map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
}

func (b *recordingBroadcaster) BroadcastBehavioralShift(alert map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shifts = append(b.shifts, alert)
}

func newTestService() (*Service, *MemoryStore, *trend.MemoryStore) {
	store := NewMemoryStore()
	trendStore := trend.NewMemoryStore()
	engine := trend.NewEngine(stubHistory{}, trendStore, nil)
	agg := reasons.NewAggregator(reasons.DefaultRegistry(), nil)
	svc := NewService(agg, store, engine, trendStore, nil)
	return svc, store, trendStore
}

func intp(v int) *int { return &v }

func TestComputeAppliesReasons(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	rs := []reasons.WeightedReason{
		{Code: "DRAINER_INTERACTION", Weight: intp(-20), Confidence: 0.9},
		{Code: "NEW_WALLET", Weight: intp(-5), Confidence: 1.0},
	}
	if err := svc.RecordReasons(ctx, "wallet-a", rs); err != nil {
		t.Fatalf("RecordReasons: %v", err)
	}

	result, err := svc.Compute(ctx, "wallet-a", 80, false)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if result.Score.Score != 55 {
		t.Errorf("score = %d, want 55", result.Score.Score)
	}
	if result.Score.RiskLevel != RiskMedium {
		t.Errorf("risk level = %s, want MEDIUM", result.Score.RiskLevel)
	}
	if result.Explanation.FinalScore != result.Score.Score {
		t.Error("explanation final must match the stored score")
	}
	if result.Trend == nil || result.Trend.Trend != trend.TrendStable {
		t.Errorf("first cycle trend should be stable, got %+v", result.Trend)
	}

	stored, err := store.LatestScore(ctx, "wallet-a")
	if err != nil {
		t.Fatalf("LatestScore: %v", err)
	}
	if stored == nil || stored.Score != 55 || stored.BaseScore != 80 {
		t.Errorf("persisted score = %+v, want 55 from base 80", stored)
	}
}

func TestComputeClampsAndMapsRisk(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rs := []reasons.WeightedReason{
		{Code: "BLACKLISTED_CREATOR", Weight: intp(-90), Confidence: 1.0},
		{Code: "RUG_PULL_DEPLOYER", Weight: intp(-80), Confidence: 1.0},
	}
	if err := svc.RecordReasons(ctx, "wallet-b", rs); err != nil {
		t.Fatalf("RecordReasons: %v", err)
	}

	result, err := svc.Compute(ctx, "wallet-b", 50, true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if result.Score.Score != 0 {
		t.Errorf("score = %d, want clamped to 0", result.Score.Score)
	}
	if result.Score.RiskLevel != RiskHigh {
		t.Errorf("risk level = %s, want HIGH", result.Score.RiskLevel)
	}
	if !result.Score.IsAnomalous {
		t.Error("anomaly flag must survive into the stored score")
	}
}

func TestComputeBroadcastsUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	b := &recordingBroadcaster{}
	svc.WithBroadcaster(b)

	if _, err := svc.Compute(context.Background(), "wallet-c", 90, false); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(b.updates) != 1 {
		t.Fatalf("broadcast %d updates, want 1", len(b.updates))
	}
	update := b.updates[0]
	if update["wallet"] != "wallet-c" {
		t.Errorf("update wallet = %v, want wallet-c", update["wallet"])
	}
	if update["riskLevel"] != "LOW" {
		t.Errorf("update risk = %v, want LOW", update["riskLevel"])
	}
	if len(b.shifts) != 0 {
		t.Error("first cycle must not broadcast a shift")
	}
}

func TestComputeUsesProfileDecay(t *testing.T) {
	svc, _, trendStore := newTestService()
	ctx := context.Background()

	now := time.Now().Unix()
	trendStore.SetProfile(trend.Profile{
		Wallet:     "wallet-d",
		LastSeenAt: now - 45*trend.SecondsPerDay,
	})

	result, err := svc.Compute(ctx, "wallet-d", 70, false)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// 45 days inactive out of 90 -> halfway between 1.0 and 0.5.
	if result.Trend.ReputationDecay < 0.74 || result.Trend.ReputationDecay > 0.76 {
		t.Errorf("decay = %f, want ~0.75", result.Trend.ReputationDecay)
	}
}

func TestExplainFromStoredBase(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.RecordReasons(ctx, "wallet-e", []reasons.WeightedReason{
		{Code: "CLEAN_HISTORY", Weight: intp(10), Confidence: 1.0},
	}); err != nil {
		t.Fatalf("RecordReasons: %v", err)
	}
	if _, err := svc.Compute(ctx, "wallet-e", 60, false); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	explanation, err := svc.Explain(ctx, "wallet-e")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if explanation == nil {
		t.Fatal("Explain returned nil for a scored wallet")
	}
	if explanation.BaseScore != 60 || explanation.FinalScore != 70 {
		t.Errorf("explanation = %+v, want base 60, final 70", explanation)
	}
}

func TestExplainUnknownWallet(t *testing.T) {
	svc, _, _ := newTestService()

	explanation, err := svc.Explain(context.Background(), "never-scored")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if explanation != nil {
		t.Error("Explain for an unscored wallet should return nil")
	}
}

func TestTrendUnknownWallet(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.Trend(context.Background(), "never-scored")
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if result != nil {
		t.Error("Trend for an unscored wallet should return nil")
	}
}

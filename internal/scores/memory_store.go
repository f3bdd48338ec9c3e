package scores

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blockid/trustd/internal/reasons"
	"github.com/blockid/trustd/internal/trend"
)

// MemoryStore is an in-memory Store for tests and single-node dev mode.
type MemoryStore struct {
	mu         sync.RWMutex
	timelines  map[string][]*TrustScore
	reasonSets map[string][]reasons.WeightedReason
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		timelines:  make(map[string][]*TrustScore),
		reasonSets: make(map[string][]reasons.WeightedReason),
	}
}

func (m *MemoryStore) InsertScore(_ context.Context, score *TrustScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *score
	m.timelines[score.Wallet] = append(m.timelines[score.Wallet], &copied)
	return nil
}

func (m *MemoryStore) LatestScore(_ context.Context, wallet string) (*TrustScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	timeline := m.timelines[wallet]
	if len(timeline) == 0 {
		return nil, nil
	}
	latest := timeline[0]
	for _, s := range timeline[1:] {
		if s.ComputedAt.After(latest.ComputedAt) {
			latest = s
		}
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStore) ReplaceReasons(_ context.Context, wallet string, rs []reasons.WeightedReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasonSets[wallet] = append([]reasons.WeightedReason(nil), rs...)
	return nil
}

func (m *MemoryStore) Reasons(_ context.Context, wallet string) ([]reasons.WeightedReason, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]reasons.WeightedReason(nil), m.reasonSets[wallet]...), nil
}

// ScoreTimeline implements trend.HistoryProvider from the in-memory score
// timeline, so dev mode runs the full trend cycle without a database.
func (m *MemoryStore) ScoreTimeline(_ context.Context, wallet string, sinceTS, untilTS int64, limit int) ([]trend.ScorePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var points []trend.ScorePoint
	for _, s := range m.timelines[wallet] {
		ts := s.ComputedAt.Unix()
		if ts < sinceTS || ts > untilTS {
			continue
		}
		score := float64(s.Score)
		points = append(points, trend.ScorePoint{
			Score:       &score,
			IsAnomalous: s.IsAnomalous,
			ComputedAt:  ts,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ComputedAt < points[j].ComputedAt })
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	return points, nil
}

// TransactionHistory returns nothing: dev mode has no transfer feed.
func (m *MemoryStore) TransactionHistory(_ context.Context, _ string, _, _ int64, _ int) ([]trend.Transaction, error) {
	return nil, nil
}

// AlertCount counts anomalous scores in the window. Dev mode has no alerts
// table, so anomaly-flagged cycles stand in for alerts.
func (m *MemoryStore) AlertCount(ctx context.Context, wallet string, sinceTS, untilTS int64) (int, error) {
	points, err := m.ScoreTimeline(ctx, wallet, sinceTS, untilTS, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range points {
		if p.IsAnomalous {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ActiveWallets(_ context.Context, since time.Time, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for wallet, timeline := range m.timelines {
		for _, s := range timeline {
			if !s.ComputedAt.Before(since) {
				out = append(out, wallet)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

package trend

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements StatsStore and ProfileStore in memory.
// Used in tests and when no DATABASE_URL is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	stats    map[string][]RollingStats // key: wallet
	profiles map[string]Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stats:    make(map[string][]RollingStats),
		profiles: make(map[string]Profile),
	}
}

func (m *MemoryStore) Upsert(_ context.Context, stats RollingStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.stats[stats.Wallet]
	for i, row := range rows {
		if row.WindowDays == stats.WindowDays && row.PeriodEndTS == stats.PeriodEndTS {
			rows[i] = stats
			return nil
		}
	}
	m.stats[stats.Wallet] = append(rows, stats)
	return nil
}

func (m *MemoryStore) History(_ context.Context, wallet string, windowDays, limit int) ([]RollingStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []RollingStats
	for _, row := range m.stats[wallet] {
		if row.WindowDays == windowDays {
			results = append(results, row)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].PeriodEndTS > results[j].PeriodEndTS
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MemoryStore) Profile(_ context.Context, wallet string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[wallet]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SetProfile records a wallet profile.
func (m *MemoryStore) SetProfile(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Wallet] = p
}

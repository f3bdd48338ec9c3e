package trend

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
)

// PostgresStore implements StatsStore, HistoryProvider, and ProfileStore
// backed by PostgreSQL. It is the storage boundary: loosely-typed score
// metadata is parsed into a typed shape here, once, and never inside the
// engine.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgreSQL-backed trend store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

func (p *PostgresStore) Upsert(ctx context.Context, stats RollingStats) error {
	const q = `
		INSERT INTO wallet_rolling_stats
			(wallet, period_end_ts, window_days, volume, tx_count,
			 anomaly_count, avg_trust_score, alert_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (wallet, window_days, period_end_ts) DO UPDATE SET
			volume = EXCLUDED.volume,
			tx_count = EXCLUDED.tx_count,
			anomaly_count = EXCLUDED.anomaly_count,
			avg_trust_score = EXCLUDED.avg_trust_score,
			alert_count = EXCLUDED.alert_count`

	var avgScore sql.NullFloat64
	if stats.AvgTrustScore != nil {
		avgScore = sql.NullFloat64{Float64: *stats.AvgTrustScore, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, q,
		stats.Wallet, stats.PeriodEndTS, stats.WindowDays,
		int64(stats.Volume), int64(stats.TxCount),
		int64(stats.AnomalyCount), avgScore, int64(stats.AlertCount))
	return err
}

func (p *PostgresStore) History(ctx context.Context, wallet string, windowDays, limit int) ([]RollingStats, error) {
	const q = `
		SELECT wallet, period_end_ts, window_days, volume, tx_count,
		       anomaly_count, avg_trust_score, alert_count
		FROM wallet_rolling_stats
		WHERE wallet = $1 AND window_days = $2
		ORDER BY period_end_ts DESC
		LIMIT $3`

	if limit <= 0 {
		limit = BaselinePeriods
	}
	rows, err := p.db.QueryContext(ctx, q, wallet, windowDays, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RollingStats
	for rows.Next() {
		var s RollingStats
		var volume, txCount, anomalies, alerts int64
		var avgScore sql.NullFloat64
		if err := rows.Scan(&s.Wallet, &s.PeriodEndTS, &s.WindowDays,
			&volume, &txCount, &anomalies, &avgScore, &alerts); err != nil {
			return nil, err
		}
		s.Volume = uint64(volume)
		s.TxCount = uint32(txCount)
		s.AnomalyCount = uint32(anomalies)
		s.AlertCount = uint32(alerts)
		if avgScore.Valid {
			v := avgScore.Float64
			s.AvgTrustScore = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) TransactionHistory(ctx context.Context, wallet string, sinceTS, untilTS int64, limit int) ([]Transaction, error) {
	const q = `
		SELECT amount, timestamp
		FROM wallet_transactions
		WHERE wallet = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC
		LIMIT $4`

	rows, err := p.db.QueryContext(ctx, q, wallet, sinceTS, untilTS, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Transaction
	for rows.Next() {
		var (
			tx     Transaction
			amount int64
		)
		if err := rows.Scan(&amount, &tx.Timestamp); err != nil {
			return nil, err
		}
		tx.Amount = uint64(amount)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// scoreMetadata is the typed shape of the trust score metadata blob.
type scoreMetadata struct {
	IsAnomalous bool `json:"is_anomalous"`
}

func (p *PostgresStore) ScoreTimeline(ctx context.Context, wallet string, sinceTS, untilTS int64, limit int) ([]ScorePoint, error) {
	const q = `
		SELECT score, metadata, computed_at
		FROM trust_scores
		WHERE wallet = $1 AND computed_at >= $2 AND computed_at <= $3
		ORDER BY computed_at DESC
		LIMIT $4`

	rows, err := p.db.QueryContext(ctx, q, wallet, sinceTS, untilTS, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ScorePoint
	for rows.Next() {
		var (
			point ScorePoint
			score sql.NullFloat64
			meta  sql.NullString
		)
		if err := rows.Scan(&score, &meta, &point.ComputedAt); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			point.Score = &v
		}
		if meta.Valid && meta.String != "" {
			var parsed scoreMetadata
			if err := json.Unmarshal([]byte(meta.String), &parsed); err != nil {
				// Malformed metadata is a data-quality anomaly, not fatal.
				p.logger.Warn("malformed trust score metadata ignored",
					"wallet", shortWallet(wallet), "error", err)
			} else {
				point.IsAnomalous = parsed.IsAnomalous
			}
		}
		out = append(out, point)
	}
	return out, rows.Err()
}

func (p *PostgresStore) AlertCount(ctx context.Context, wallet string, sinceTS, untilTS int64) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM wallet_alerts
		WHERE wallet = $1 AND created_at >= $2 AND created_at <= $3`

	var count int
	err := p.db.QueryRowContext(ctx, q, wallet, sinceTS, untilTS).Scan(&count)
	return count, err
}

func (p *PostgresStore) Profile(ctx context.Context, wallet string) (*Profile, error) {
	const q = `
		SELECT wallet, last_seen_at
		FROM wallet_profiles
		WHERE wallet = $1`

	var profile Profile
	err := p.db.QueryRowContext(ctx, q, wallet).Scan(&profile.Wallet, &profile.LastSeenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

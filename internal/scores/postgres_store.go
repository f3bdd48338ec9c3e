package scores

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/blockid/trustd/internal/reasons"
)

// PostgresStore implements Store backed by PostgreSQL. The trust_scores
// timeline is shared with the trend engine's history reads, so the column
// shapes here and there must stay in sync.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed score store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// scoreMetadata is the JSON blob stored alongside each timeline row.
type scoreMetadata struct {
	IsAnomalous bool `json:"is_anomalous"`
}

func (p *PostgresStore) InsertScore(ctx context.Context, score *TrustScore) error {
	const q = `
		INSERT INTO trust_scores
			(wallet, base_score, score, risk_level, metadata, computed_at)
		VALUES ($1,$2,$3,$4,$5,$6)`

	meta, err := json.Marshal(scoreMetadata{IsAnomalous: score.IsAnomalous})
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, q,
		score.Wallet, score.BaseScore, score.Score,
		string(score.RiskLevel), string(meta), score.ComputedAt.Unix())
	return err
}

func (p *PostgresStore) LatestScore(ctx context.Context, wallet string) (*TrustScore, error) {
	const q = `
		SELECT wallet, base_score, score, risk_level, metadata, computed_at
		FROM trust_scores
		WHERE wallet = $1
		ORDER BY computed_at DESC
		LIMIT 1`

	var (
		score      TrustScore
		riskLevel  string
		meta       sql.NullString
		computedAt int64
	)
	err := p.db.QueryRowContext(ctx, q, wallet).Scan(
		&score.Wallet, &score.BaseScore, &score.Score,
		&riskLevel, &meta, &computedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	score.RiskLevel = RiskLevel(riskLevel)
	score.ComputedAt = time.Unix(computedAt, 0).UTC()
	if meta.Valid && meta.String != "" {
		var parsed scoreMetadata
		if json.Unmarshal([]byte(meta.String), &parsed) == nil {
			score.IsAnomalous = parsed.IsAnomalous
		}
	}
	return &score, nil
}

func (p *PostgresStore) ReplaceReasons(ctx context.Context, wallet string, rs []reasons.WeightedReason) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wallet_reasons WHERE wallet = $1`, wallet); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallet_reasons
			(wallet, position, code, weight, confidence, evidence_tx_hash, evidence_link)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rs {
		var weight sql.NullInt64
		if r.Weight != nil {
			weight = sql.NullInt64{Int64: int64(*r.Weight), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, wallet, i, r.Code, weight,
			r.Confidence, r.EvidenceTxHash, r.EvidenceLink); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresStore) Reasons(ctx context.Context, wallet string) ([]reasons.WeightedReason, error) {
	const q = `
		SELECT code, weight, confidence, evidence_tx_hash, evidence_link
		FROM wallet_reasons
		WHERE wallet = $1
		ORDER BY position ASC`

	rows, err := p.db.QueryContext(ctx, q, wallet)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []reasons.WeightedReason
	for rows.Next() {
		var (
			r      reasons.WeightedReason
			weight sql.NullInt64
		)
		if err := rows.Scan(&r.Code, &weight, &r.Confidence,
			&r.EvidenceTxHash, &r.EvidenceLink); err != nil {
			return nil, err
		}
		if weight.Valid {
			w := int(weight.Int64)
			r.Weight = &w
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ActiveWallets(ctx context.Context, since time.Time, limit int) ([]string, error) {
	const q = `
		SELECT DISTINCT wallet
		FROM trust_scores
		WHERE computed_at >= $1
		LIMIT $2`

	if limit <= 0 {
		limit = 1000
	}
	rows, err := p.db.QueryContext(ctx, q, since.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var wallet string
		if err := rows.Scan(&wallet); err != nil {
			return nil, err
		}
		out = append(out, wallet)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbradar/arbradar/internal/domain"
)

// PairStore implements domain.MarketPairStore using PostgreSQL. Callers are
// expected to store market IDs in canonical order; the schema enforces it
// with a CHECK constraint.
type PairStore struct {
	pool *pgxpool.Pool
}

// NewPairStore creates a new PairStore backed by the given connection pool.
func NewPairStore(pool *pgxpool.Pool) *PairStore {
	return &PairStore{pool: pool}
}

const pairCols = `id, market_a_id, market_b_id, confidence_score, is_manual_override, created_at, updated_at`

const pairUpsert = `
	INSERT INTO market_pairs (
		id, market_a_id, market_b_id, confidence_score, is_manual_override,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (market_a_id, market_b_id) DO UPDATE SET
		confidence_score = EXCLUDED.confidence_score,
		updated_at       = NOW()
	WHERE market_pairs.is_manual_override = FALSE`

// UpsertBatch inserts or refreshes pairs in one batch. Manual overrides are
// never overwritten by recomputed confidence scores.
func (s *PairStore) UpsertBatch(ctx context.Context, pairs []domain.MarketPair) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range pairs {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		a, b := domain.CanonicalPairKey(p.MarketAID, p.MarketBID)
		batch.Queue(pairUpsert, id, a, b, p.ConfidenceScore, p.IsManualOverride)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range pairs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert pair batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanPair(row pgx.Row) (domain.MarketPair, error) {
	var p domain.MarketPair
	err := row.Scan(
		&p.ID, &p.MarketAID, &p.MarketBID, &p.ConfidenceScore,
		&p.IsManualOverride, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetByID retrieves a pair by its primary key.
func (s *PairStore) GetByID(ctx context.Context, id string) (domain.MarketPair, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pairCols+` FROM market_pairs WHERE id = $1`, id)
	p, err := scanPair(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.MarketPair{}, domain.ErrNotFound
		}
		return domain.MarketPair{}, fmt.Errorf("postgres: get pair %s: %w", id, err)
	}
	return p, nil
}

// List returns pairs ordered by confidence, most confident first.
func (s *PairStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.MarketPair, error) {
	query := `SELECT ` + pairCols + ` FROM market_pairs ORDER BY confidence_score DESC`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.MarketPair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list pairs rows: %w", err)
	}
	return pairs, nil
}

// PruneAutomatic deletes non-override pairs whose markets are no longer
// active and returns how many rows were removed.
func (s *PairStore) PruneAutomatic(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM market_pairs p
		WHERE p.is_manual_override = FALSE
		  AND EXISTS (
			SELECT 1 FROM markets m
			WHERE m.id IN (p.market_a_id, p.market_b_id)
			  AND m.status <> 'active'
		  )`)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune pairs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of pairs.
func (s *PairStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM market_pairs").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count pairs: %w", err)
	}
	return count, nil
}

var _ domain.MarketPairStore = (*PairStore)(nil)

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbradar/arbradar/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL. Markets are
// upserted on the (venue_id, external_id) natural key so re-ingestion never
// duplicates rows.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, venue_id, external_id, title, category,
	yes_price, no_price, yes_liquidity, no_liquidity, volume_24h,
	status, last_updated, created_at, updated_at`

const marketUpsert = `
	INSERT INTO markets (
		id, venue_id, external_id, title, category,
		yes_price, no_price, yes_liquidity, no_liquidity, volume_24h,
		status, last_updated, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, NOW(), NOW()
	)
	ON CONFLICT (venue_id, external_id) DO UPDATE SET
		title         = EXCLUDED.title,
		category      = EXCLUDED.category,
		yes_price     = EXCLUDED.yes_price,
		no_price      = EXCLUDED.no_price,
		yes_liquidity = EXCLUDED.yes_liquidity,
		no_liquidity  = EXCLUDED.no_liquidity,
		volume_24h    = EXCLUDED.volume_24h,
		status        = EXCLUDED.status,
		last_updated  = EXCLUDED.last_updated,
		updated_at    = NOW()`

// UpsertBatch inserts or updates markets in a single batch operation. Fresh
// rows get a generated ID; conflicting rows keep their existing one.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		batch.Queue(marketUpsert,
			id, m.VenueID, m.ExternalID, m.Title, string(m.Category),
			m.YesPrice, m.NoPrice, m.YesLiquidity, m.NoLiquidity, m.Volume24h,
			string(m.Status), m.LastUpdated,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var category, status string
	err := row.Scan(
		&m.ID, &m.VenueID, &m.ExternalID, &m.Title, &category,
		&m.YesPrice, &m.NoPrice, &m.YesLiquidity, &m.NoLiquidity, &m.Volume24h,
		&status, &m.LastUpdated, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Category = domain.Category(category)
	m.Status = domain.MarketStatus(status)
	return m, nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// ListActive returns active markets with pagination.
func (s *MarketStore) ListActive(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE status = 'active' ORDER BY last_updated DESC`
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
		return nil, fmt.Errorf("postgres: list active markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan active market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list active markets rows: %w", err)
	}
	return markets, nil
}

// CloseStale marks markets not refreshed since cutoff as closed and returns
// how many rows changed.
func (s *MarketStore) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE markets SET status = 'closed', updated_at = NOW()
		 WHERE status = 'active' AND last_updated < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: close stale markets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// CountActive returns the number of active markets.
func (s *MarketStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM markets WHERE status = 'active'").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count active markets: %w", err)
	}
	return count, nil
}

var _ domain.MarketStore = (*MarketStore)(nil)

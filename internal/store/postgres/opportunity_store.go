package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbradar/arbradar/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// ReplaceActive deletes the whole active set and inserts the new one inside
// a single transaction so concurrent readers observe either the old or the
// new set, never a partial one.
func (s *OpportunityStore) ReplaceActive(ctx context.Context, opps []domain.ArbitrageOpportunity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin replace opportunities: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM opportunities WHERE status = 'active'`); err != nil {
		return fmt.Errorf("postgres: delete active opportunities: %w", err)
	}

	if len(opps) > 0 {
		rows := make([][]any, 0, len(opps))
		for _, o := range opps {
			rows = append(rows, []any{
				o.ID, o.PairID, o.BuyVenueID, o.SellVenueID,
				string(o.BuySide), string(o.SellSide),
				o.BuyPrice, o.SellPrice, o.BuyLiquidity, o.SellLiquidity,
				o.GrossSpreadPct, o.NetSpreadPct, o.ExpectedProfitPct, o.ExpectedProfitUSD,
				o.MaxTradableAmount, string(o.RiskLevel), string(o.Status), o.CreatedAt,
			})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"opportunities"},
			[]string{
				"id", "pair_id", "buy_venue_id", "sell_venue_id", "buy_side", "sell_side",
				"buy_price", "sell_price", "buy_liquidity", "sell_liquidity",
				"gross_spread_pct", "net_spread_pct", "expected_profit_pct", "expected_profit_usd",
				"max_tradable_amount", "risk_level", "status", "created_at",
			},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("postgres: bulk insert opportunities: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit replace opportunities: %w", err)
	}
	return nil
}

func scanOpportunity(row pgx.Row) (domain.ArbitrageOpportunity, error) {
	var o domain.ArbitrageOpportunity
	var buySide, sellSide, risk, status string
	err := row.Scan(
		&o.ID, &o.PairID, &o.BuyVenueID, &o.SellVenueID, &buySide, &sellSide,
		&o.BuyPrice, &o.SellPrice, &o.BuyLiquidity, &o.SellLiquidity,
		&o.GrossSpreadPct, &o.NetSpreadPct, &o.ExpectedProfitPct, &o.ExpectedProfitUSD,
		&o.MaxTradableAmount, &risk, &status, &o.CreatedAt,
	)
	if err != nil {
		return domain.ArbitrageOpportunity{}, err
	}
	o.BuySide = domain.Side(buySide)
	o.SellSide = domain.Side(sellSide)
	o.RiskLevel = domain.RiskLevel(risk)
	o.Status = domain.OpportunityStatus(status)
	return o, nil
}

// List returns active opportunities matching the filter, best spread first.
// Category filtering joins through the pair's first market.
func (s *OpportunityStore) List(ctx context.Context, filter domain.OpportunityFilter) ([]domain.ArbitrageOpportunity, error) {
	query := `
		SELECT o.id, o.pair_id, o.buy_venue_id, o.sell_venue_id, o.buy_side, o.sell_side,
			o.buy_price, o.sell_price, o.buy_liquidity, o.sell_liquidity,
			o.gross_spread_pct, o.net_spread_pct, o.expected_profit_pct, o.expected_profit_usd,
			o.max_tradable_amount, o.risk_level, o.status, o.created_at
		FROM opportunities o
		JOIN market_pairs p ON p.id = o.pair_id
		JOIN markets ma ON ma.id = p.market_a_id
		WHERE o.status = 'active'`
	args := []any{}
	argIdx := 1

	if filter.MinNetSpreadPct > 0 {
		query += fmt.Sprintf(" AND o.net_spread_pct >= $%d", argIdx)
		args = append(args, filter.MinNetSpreadPct)
		argIdx++
	}
	if filter.MinLiquidity > 0 {
		query += fmt.Sprintf(" AND o.max_tradable_amount >= $%d", argIdx)
		args = append(args, filter.MinLiquidity)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND ma.category = $%d", argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}

	query += " ORDER BY o.net_spread_pct DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return opps, nil
}

// CountActive returns the number of active opportunities.
func (s *OpportunityStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM opportunities WHERE status = 'active'").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count active opportunities: %w", err)
	}
	return count, nil
}

// Stats runs the aggregation query backing the status facade.
func (s *OpportunityStore) Stats(ctx context.Context) (domain.MarketStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM venues),
			(SELECT COUNT(*) FROM markets WHERE status = 'active'),
			(SELECT COUNT(*) FROM market_pairs),
			(SELECT COUNT(*) FROM opportunities WHERE status = 'active'),
			COALESCE((SELECT AVG(net_spread_pct) FROM opportunities WHERE status = 'active'), 0),
			COALESCE((SELECT SUM(volume_24h) FROM markets WHERE status = 'active'), 0),
			COALESCE((SELECT MAX(last_updated) FROM markets), 'epoch'::timestamptz)`

	var stats domain.MarketStats
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.Venues, &stats.ActiveMarkets, &stats.MarketPairs,
		&stats.ActiveOpportunities, &stats.AvgNetSpreadPct,
		&stats.TotalVolume24h, &stats.LastSyncAt,
	)
	if err != nil {
		return domain.MarketStats{}, fmt.Errorf("postgres: stats: %w", err)
	}
	return stats, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)

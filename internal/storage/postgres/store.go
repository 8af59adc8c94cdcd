package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionScope/internal/model"
)

// Store provides Postgres persistence for valuation snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveSnapshot upserts one valuation run for a wallet. Positions are
// keyed by (wallet, run_at, position_id) so re-running a timestamp is
// idempotent.
func (s *Store) SaveSnapshot(ctx context.Context, wallet string, runAt time.Time, positions []model.ValuedPosition) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range positions {
		batch.Queue(`
			INSERT INTO position_snapshots (
				wallet, run_at, position_id, variant, pair,
				token0_symbol, token0_amount, token0_usd,
				token1_symbol, token1_amount, token1_usd,
				liquidity_usd, fees_earned_usd, in_range, price_source,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (wallet, run_at, position_id)
			DO UPDATE SET
				variant = EXCLUDED.variant,
				pair = EXCLUDED.pair,
				token0_symbol = EXCLUDED.token0_symbol,
				token0_amount = EXCLUDED.token0_amount,
				token0_usd = EXCLUDED.token0_usd,
				token1_symbol = EXCLUDED.token1_symbol,
				token1_amount = EXCLUDED.token1_amount,
				token1_usd = EXCLUDED.token1_usd,
				liquidity_usd = EXCLUDED.liquidity_usd,
				fees_earned_usd = EXCLUDED.fees_earned_usd,
				in_range = EXCLUDED.in_range,
				price_source = EXCLUDED.price_source,
				updated_at = now()
		`,
			wallet,
			runAt,
			p.ID,
			string(p.Variant),
			p.Pair,
			p.Token0.Ref.Symbol,
			p.Token0.Amount,
			p.Token0.USD,
			p.Token1.Ref.Symbol,
			p.Token1.Amount,
			p.Token1.USD,
			p.LiquidityUSD,
			p.FeesEarnedUSD,
			p.InRange,
			string(p.PriceSource),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range positions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LastRun returns the most recent snapshot timestamp for a wallet.
func (s *Store) LastRun(ctx context.Context, wallet string) (time.Time, bool, error) {
	if wallet == "" {
		return time.Time{}, false, fmt.Errorf("wallet required")
	}
	var runAt *time.Time
	row := s.pool.QueryRow(ctx, `SELECT max(run_at) FROM position_snapshots WHERE wallet=$1`, wallet)
	if err := row.Scan(&runAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	if runAt == nil {
		return time.Time{}, false, nil
	}
	return *runAt, true, nil
}

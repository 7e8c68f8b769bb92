package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"volScope/internal/model"
)

const dateLayout = "2006-01-02"

// Store provides Postgres persistence for volatility estimates.
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

// PutEstimates upserts the pools and estimates in one batch.
func (s *Store) PutEstimates(ctx context.Context, estimates []model.Estimate) error {
	if len(estimates) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, estimate := range estimates {
		if err := queueEstimate(batch, estimate); err != nil {
			return err
		}
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert estimate: %w", err)
		}
	}
	return nil
}

// LoadEstimate returns the stored estimate of a pool for one YYYY-MM-DD day. The bool
// is false when no row exists.
func (s *Store) LoadEstimate(ctx context.Context, poolID string, date string) (model.Estimate, bool, error) {
	day, err := parseEstimateDate(date)
	if err != nil {
		return model.Estimate{}, false, err
	}

	var (
		estimate  model.Estimate
		pool      = &estimate.PoolDetails
		decimals0 int16
		decimals1 int16
		fee       int32
		tickCount int32
		stored    time.Time
	)
	row := s.pool.QueryRow(ctx, `
		SELECT p.pool_address, p.token0, p.token0_symbol, p.token0_decimals,
			p.token1, p.token1_symbol, p.token1_decimals, p.fee, p.tick_spacing,
			e.estimate_date, e.current_tick, e.daily_volume_usd, e.liquidity_token0, e.liquidity_token1,
			e.price, e.quote_token, e.usd_quoted, e.liquidity_usd, e.active_liquidity,
			e.implied_volatility, e.tick_count, e.source, e.computed_at
		FROM pool_volatility_estimates e
		JOIN pools p ON p.pool_address = e.pool_address
		WHERE e.pool_address = $1 AND e.estimate_date = $2
	`, strings.ToLower(poolID), day)
	err = row.Scan(
		&pool.ID, &pool.Token0.Address, &pool.Token0.Symbol, &decimals0,
		&pool.Token1.Address, &pool.Token1.Symbol, &decimals1, &fee, &pool.TickSpacing,
		&stored, &pool.CurrentTick, &estimate.DailyVolumeUSD, &estimate.LiquidityToken0, &estimate.LiquidityToken1,
		&estimate.Price, &estimate.QuoteToken, &estimate.USDQuoted, &estimate.LiquidityUSD, &estimate.ActiveLiquidity,
		&estimate.ImpliedVolatility, &tickCount, &pool.Source, &estimate.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Estimate{}, false, nil
		}
		return model.Estimate{}, false, fmt.Errorf("load estimate: %w", err)
	}

	pool.Token0.Decimals = uint8(decimals0)
	pool.Token1.Decimals = uint8(decimals1)
	pool.FeeTier = uint32(fee)
	estimate.TickCount = int(tickCount)
	estimate.Date = stored.Format(dateLayout)
	estimate.ComputedAt = estimate.ComputedAt.UTC()
	return estimate, true, nil
}

func parseEstimateDate(date string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse estimate date %q: %w", date, err)
	}
	return day, nil
}

func queuePool(batch *pgx.Batch, pool model.PoolMetadata) {
	batch.Queue(`
		INSERT INTO pools (
			pool_address, token0, token0_symbol, token0_decimals, token1, token1_symbol, token1_decimals,
			fee, tick_spacing, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			token0 = EXCLUDED.token0,
			token0_symbol = EXCLUDED.token0_symbol,
			token0_decimals = EXCLUDED.token0_decimals,
			token1 = EXCLUDED.token1,
			token1_symbol = EXCLUDED.token1_symbol,
			token1_decimals = EXCLUDED.token1_decimals,
			fee = EXCLUDED.fee,
			tick_spacing = EXCLUDED.tick_spacing,
			updated_at = now()
	`,
		pool.ID,
		pool.Token0.Address,
		pool.Token0.Symbol,
		int16(pool.Token0.Decimals),
		pool.Token1.Address,
		pool.Token1.Symbol,
		int16(pool.Token1.Decimals),
		int32(pool.FeeTier),
		pool.TickSpacing,
	)
}

func queueEstimate(batch *pgx.Batch, estimate model.Estimate) error {
	day, err := parseEstimateDate(estimate.Date)
	if err != nil {
		return err
	}
	queuePool(batch, estimate.PoolDetails)
	batch.Queue(`
		INSERT INTO pool_volatility_estimates (
			pool_address, estimate_date, current_tick, daily_volume_usd, liquidity_token0, liquidity_token1,
			price, quote_token, usd_quoted, liquidity_usd, active_liquidity, implied_volatility,
			tick_count, source, computed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
		ON CONFLICT (pool_address, estimate_date)
		DO UPDATE SET
			current_tick = EXCLUDED.current_tick,
			daily_volume_usd = EXCLUDED.daily_volume_usd,
			liquidity_token0 = EXCLUDED.liquidity_token0,
			liquidity_token1 = EXCLUDED.liquidity_token1,
			price = EXCLUDED.price,
			quote_token = EXCLUDED.quote_token,
			usd_quoted = EXCLUDED.usd_quoted,
			liquidity_usd = EXCLUDED.liquidity_usd,
			active_liquidity = EXCLUDED.active_liquidity,
			implied_volatility = EXCLUDED.implied_volatility,
			tick_count = EXCLUDED.tick_count,
			source = EXCLUDED.source,
			computed_at = EXCLUDED.computed_at,
			updated_at = now()
	`,
		estimate.PoolDetails.ID,
		day,
		estimate.PoolDetails.CurrentTick,
		estimate.DailyVolumeUSD,
		estimate.LiquidityToken0,
		estimate.LiquidityToken1,
		estimate.Price,
		estimate.QuoteToken,
		estimate.USDQuoted,
		estimate.LiquidityUSD,
		estimate.ActiveLiquidity,
		estimate.ImpliedVolatility,
		int32(estimate.TickCount),
		estimate.PoolDetails.Source,
		estimate.ComputedAt,
	)
	return nil
}

package estimate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"volScope/internal/model"
	"volScope/internal/storage"
	"volScope/internal/volatility"
)

// Pipeline stages used to label errors.
const (
	StagePool       = "fetch pool"
	StageVolume     = "fetch daily volume"
	StageTicks      = "fetch ticks"
	StageLiquidity  = "reduce liquidity"
	StageVolatility = "compute volatility"
	StageStore      = "store estimate"
)

const dateLayout = "2006-01-02"

// PoolSource loads a pool snapshot.
type PoolSource interface {
	FetchPool(ctx context.Context, poolID string) (model.PoolMetadata, error)
}

// VolumeSource loads the USD volume of one UTC day.
type VolumeSource interface {
	FetchDailyVolume(ctx context.Context, poolID string, date time.Time) (model.DailyVolume, error)
}

// TickSource loads the initialized ticks of an inclusive window.
type TickSource interface {
	FetchTicks(ctx context.Context, poolID string, lo, hi int32) ([]model.TickLiquidityRecord, error)
}

// Config holds runtime settings for the estimator.
type Config struct {
	// TickWindow is the number of tick spacings fetched on either side of the current
	// tick. Zero fetches the full tick range.
	TickWindow  int
	Stablecoins []string
}

// Estimator runs fetch, reduce and compute for one pool and one day.
type Estimator struct {
	cfg     Config
	pools   PoolSource
	volumes VolumeSource
	ticks   TickSource
	calc    *volatility.Calculator
	sinks   []storage.Sink
	logger  *zap.Logger
	now     func() time.Time
}

// NewEstimator builds an Estimator with its dependencies.
func NewEstimator(cfg Config, pools PoolSource, volumes VolumeSource, ticks TickSource, logger *zap.Logger, sinks ...storage.Sink) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		cfg:     cfg,
		pools:   pools,
		volumes: volumes,
		ticks:   ticks,
		calc:    volatility.NewCalculator(cfg.Stablecoins, logger),
		sinks:   sinks,
		logger:  logger,
		now:     time.Now,
	}
}

// Run produces the estimate for poolID on the UTC day of date and hands it to the sinks.
// Every error is a *model.StageError and no partial estimate is returned.
func (e *Estimator) Run(ctx context.Context, poolID string, date time.Time) (model.Estimate, error) {
	if e.pools == nil || e.volumes == nil || e.ticks == nil {
		return model.Estimate{}, fmt.Errorf("estimator sources are not configured")
	}
	day := date.UTC().Truncate(24 * time.Hour)

	pool, err := e.pools.FetchPool(ctx, poolID)
	if err != nil {
		return model.Estimate{}, model.WrapStage(StagePool, err)
	}
	lo, hi := volatility.Window(pool.CurrentTick, pool.TickSpacing, e.cfg.TickWindow)

	e.logger.Info("pool loaded",
		zap.String("pool", pool.ID),
		zap.String("pair", pool.Token0.Symbol+"/"+pool.Token1.Symbol),
		zap.Int32("tick", pool.CurrentTick),
		zap.Uint32("fee_tier", pool.FeeTier),
		zap.Int32("tick_spacing", pool.TickSpacing),
		zap.Int32("window_from", lo),
		zap.Int32("window_to", hi),
		zap.String("source", pool.Source),
	)

	var (
		volume  model.DailyVolume
		records []model.TickLiquidityRecord
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		v, err := e.volumes.FetchDailyVolume(groupCtx, poolID, day)
		if err != nil {
			return model.WrapStage(StageVolume, err)
		}
		volume = v
		return nil
	})
	group.Go(func() error {
		r, err := e.ticks.FetchTicks(groupCtx, poolID, lo, hi)
		if err != nil {
			return model.WrapStage(StageTicks, err)
		}
		records = r
		return nil
	})
	if err := group.Wait(); err != nil {
		return model.Estimate{}, err
	}

	liquidity, err := e.calc.EffectiveLiquidity(pool, records)
	if err != nil {
		return model.Estimate{}, model.WrapStage(StageLiquidity, err)
	}

	volumeUSD, _ := volume.VolumeUSD.Float64()
	iv, err := volatility.ImpliedVolatility(pool.Gamma(), volumeUSD, liquidity.LiquidityUSD)
	if err != nil {
		return model.Estimate{}, model.WrapStage(StageVolatility, err)
	}

	estimate := model.Estimate{
		PoolDetails:       pool,
		Date:              day.Format(dateLayout),
		DailyVolumeUSD:    volumeUSD,
		LiquidityToken0:   liquidity.Amount0,
		LiquidityToken1:   liquidity.Amount1,
		Price:             liquidity.Price,
		QuoteToken:        liquidity.QuoteToken,
		USDQuoted:         liquidity.USDQuoted,
		LiquidityUSD:      liquidity.LiquidityUSD,
		ActiveLiquidity:   liquidity.Liquidity.String(),
		ImpliedVolatility: iv,
		TickCount:         len(records),
		ComputedAt:        e.now().UTC(),
	}

	for _, sink := range e.sinks {
		if err := sink.PutEstimates(ctx, []model.Estimate{estimate}); err != nil {
			return model.Estimate{}, model.WrapStage(StageStore, err)
		}
	}

	e.logger.Info("estimate complete",
		zap.String("pool", pool.ID),
		zap.String("date", estimate.Date),
		zap.Int("ticks", estimate.TickCount),
		zap.Float64("liquidity_usd", estimate.LiquidityUSD),
		zap.Float64("implied_volatility", estimate.ImpliedVolatility),
	)
	return estimate, nil
}

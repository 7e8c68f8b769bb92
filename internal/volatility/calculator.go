package volatility

import (
	"fmt"
	"math"
	"math/big"

	"go.uber.org/zap"

	"volScope/internal/model"
)

// Calculator reduces tick records to effective liquidity and evaluates the volatility formula.
type Calculator struct {
	quoter *Quoter
	logger *zap.Logger
}

func NewCalculator(stablecoins []string, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		quoter: NewQuoter(stablecoins),
		logger: logger,
	}
}

// EffectiveLiquidity computes the token amounts and combined value of the liquidity
// active at the pool's current tick.
func (c *Calculator) EffectiveLiquidity(pool model.PoolMetadata, records []model.TickLiquidityRecord) (model.EffectiveLiquidity, error) {
	liquidity, err := ActiveLiquidity(records, pool.CurrentTick)
	if err != nil {
		return model.EffectiveLiquidity{}, err
	}
	c.crossCheck(pool, liquidity)

	amount0, amount1, err := TokenAmounts(liquidity, pool.CurrentTick, pool.TickSpacing, pool.Token0.Decimals, pool.Token1.Decimals)
	if err != nil {
		return model.EffectiveLiquidity{}, err
	}

	price := AdjustedPrice(pool.CurrentTick, pool.Token0.Decimals, pool.Token1.Decimals)
	valuation := c.quoter.Value(pool.Token0.Symbol, pool.Token1.Symbol, price, amount0, amount1)
	if !valuation.USDQuoted {
		c.logger.Warn("no stablecoin in pool, liquidity is not USD denominated",
			zap.String("pool", pool.ID),
			zap.String("token0", pool.Token0.Symbol),
			zap.String("token1", pool.Token1.Symbol),
			zap.String("quote", valuation.QuoteToken),
		)
	}

	if math.IsNaN(valuation.Total) || math.IsInf(valuation.Total, 0) || valuation.Total <= 0 {
		return model.EffectiveLiquidity{}, fmt.Errorf("tick liquidity value %v: %w", valuation.Total, model.ErrDataInconsistency)
	}

	return model.EffectiveLiquidity{
		Liquidity:    liquidity,
		Amount0:      amount0,
		Amount1:      amount1,
		Price:        valuation.Price,
		LiquidityUSD: valuation.Total,
		QuoteToken:   valuation.QuoteToken,
		USDQuoted:    valuation.USDQuoted,
	}, nil
}

// crossCheck compares the folded liquidity with the pool-reported active liquidity.
func (c *Calculator) crossCheck(pool model.PoolMetadata, folded *big.Int) {
	if pool.Liquidity == "" {
		return
	}
	reported, ok := new(big.Int).SetString(pool.Liquidity, 10)
	if !ok {
		c.logger.Debug("pool liquidity not parseable", zap.String("liquidity", pool.Liquidity))
		return
	}
	if reported.Cmp(folded) != 0 {
		c.logger.Warn("folded liquidity differs from pool liquidity",
			zap.String("pool", pool.ID),
			zap.String("folded", folded.String()),
			zap.String("reported", reported.String()),
		)
	}
}

package volatility

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"volScope/internal/model"
)

// ActiveLiquidity folds the net liquidity deltas of all ticks at or below currentTick.
// Records may arrive in any order.
func ActiveLiquidity(records []model.TickLiquidityRecord, currentTick int32) (*big.Int, error) {
	sorted := make([]model.TickLiquidityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TickIdx < sorted[j].TickIdx
	})

	liquidity := new(big.Int)
	for _, record := range sorted {
		if record.TickIdx > currentTick {
			break
		}
		if record.LiquidityNet == nil {
			continue
		}
		liquidity.Add(liquidity, record.LiquidityNet)
	}

	if liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("active liquidity %s at tick %d: %w", liquidity.String(), currentTick, model.ErrDataInconsistency)
	}
	return liquidity, nil
}

// TokenAmounts converts liquidity L into token0 and token1 amounts held in the
// tick-spacing interval containing currentTick, adjusted for token decimals.
func TokenAmounts(liquidity *big.Int, currentTick, tickSpacing int32, decimals0, decimals1 uint8) (float64, float64, error) {
	if tickSpacing <= 0 {
		return 0, 0, fmt.Errorf("tick spacing %d: %w", tickSpacing, model.ErrDataUnavailable)
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return 0, 0, fmt.Errorf("liquidity must be positive: %w", model.ErrDataInconsistency)
	}

	l, _ := new(big.Float).SetInt(liquidity).Float64()

	lower := RangeBottom(currentTick, tickSpacing)
	upper := lower + tickSpacing
	sa := SqrtPriceAtTick(float64(lower))
	sb := SqrtPriceAtTick(float64(upper))
	sp := SqrtPriceAtTick(float64(currentTick))

	amount0 := l * (sb - sp) / (sp * sb)
	amount1 := l * (sp - sa)

	return amount0 / math.Pow10(int(decimals0)), amount1 / math.Pow10(int(decimals1)), nil
}

// AdjustedPrice returns the decimal-adjusted price of token0 in token1 at tick.
func AdjustedPrice(tick int32, decimals0, decimals1 uint8) float64 {
	return TickToPrice(float64(tick)) / math.Pow10(int(decimals1)-int(decimals0))
}

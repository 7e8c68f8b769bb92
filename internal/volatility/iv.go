package volatility

import (
	"fmt"
	"math"

	"volScope/internal/model"
)

// DaysPerYear is the annualization convention (calendar days).
const DaysPerYear = 365

// ImpliedVolatility returns the annualized volatility 2·γ·sqrt(volume/liquidity)·sqrt(365).
func ImpliedVolatility(gamma, volumeUSD, liquidityUSD float64) (float64, error) {
	if math.IsNaN(liquidityUSD) || math.IsInf(liquidityUSD, 0) || liquidityUSD <= 0 {
		return 0, fmt.Errorf("tick liquidity %v: %w", liquidityUSD, model.ErrDataInconsistency)
	}
	if math.IsNaN(volumeUSD) || math.IsInf(volumeUSD, 0) || volumeUSD < 0 {
		return 0, fmt.Errorf("daily volume %v: %w", volumeUSD, model.ErrDataInconsistency)
	}
	if math.IsNaN(gamma) || gamma < 0 {
		return 0, fmt.Errorf("fee %v: %w", gamma, model.ErrDataInconsistency)
	}

	daily := 2 * gamma * math.Sqrt(volumeUSD/liquidityUSD)
	return daily * math.Sqrt(DaysPerYear), nil
}

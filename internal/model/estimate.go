package model

import (
	"encoding/json"
	"time"
)

// Estimate is the result of one run for one pool and one day.
type Estimate struct {
	PoolDetails       PoolMetadata `json:"poolDetails"`
	Date              string       `json:"date"`
	DailyVolumeUSD    float64      `json:"dailyVolumeUSD"`
	LiquidityToken0   float64      `json:"liquidityToken0"`
	LiquidityToken1   float64      `json:"liquidityToken1"`
	Price             float64      `json:"price"`
	QuoteToken        string       `json:"quoteToken"`
	USDQuoted         bool         `json:"usdQuoted"`
	LiquidityUSD      float64      `json:"liquidityUSD"`
	ActiveLiquidity   string       `json:"activeLiquidity"`
	// ImpliedVolatility is annualized and stored as a fraction, 0.3193 for 31.93%.
	ImpliedVolatility float64      `json:"impliedVolatility"`
	TickCount         int          `json:"tickCount"`
	ComputedAt        time.Time    `json:"computedAt"`
}

// ImpliedVolatilityPercent returns the annualized implied volatility in percent.
func (e Estimate) ImpliedVolatilityPercent() float64 {
	return e.ImpliedVolatility * 100
}

// MarshalJSON adds impliedVolatilityPercent next to the fractional value.
func (e Estimate) MarshalJSON() ([]byte, error) {
	type Alias Estimate
	return json.Marshal(struct {
		Alias
		ImpliedVolatilityPercent float64 `json:"impliedVolatilityPercent"`
	}{
		Alias:                    Alias(e),
		ImpliedVolatilityPercent: e.ImpliedVolatilityPercent(),
	})
}

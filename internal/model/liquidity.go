package model

import "math/big"

// EffectiveLiquidity is the liquidity active in the current tick-spacing interval,
// expressed in token units and in the quote currency.
type EffectiveLiquidity struct {
	Liquidity    *big.Int
	Amount0      float64
	Amount1      float64
	Price        float64
	LiquidityUSD float64
	QuoteToken   string
	USDQuoted    bool
}

package model

import "math/big"

// TickLiquidityRecord is the net liquidity delta at an initialized tick boundary.
type TickLiquidityRecord struct {
	TickIdx      int32
	LiquidityNet *big.Int
}

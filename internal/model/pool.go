package model

// Metadata sources.
const (
	SourceSubgraph = "subgraph"
	SourceChain    = "chain"
)

// feeDenominator converts a raw fee tier (hundredths of a bip) into a fraction.
const feeDenominator = 1_000_000

// PoolMetadata is an immutable snapshot of a V3 pool taken once per run.
type PoolMetadata struct {
	ID           string    `json:"id"`
	CurrentTick  int32     `json:"current_tick"`
	FeeTier      uint32    `json:"fee_tier"`
	TickSpacing  int32     `json:"tick_spacing"`
	SqrtPriceX96 string    `json:"sqrt_price_x96,omitempty"`
	Liquidity    string    `json:"liquidity,omitempty"`
	Token0       TokenMeta `json:"token0"`
	Token1       TokenMeta `json:"token1"`
	Source       string    `json:"source"`
}

// Gamma returns the pool fee as a fraction, e.g. 0.003 for the 3000 tier.
func (p PoolMetadata) Gamma() float64 {
	return float64(p.FeeTier) / feeDenominator
}

// TickSpacingForFee maps a fee tier to its canonical tick spacing.
// Unknown tiers fall back to 60.
func TickSpacingForFee(feeTier uint32) int32 {
	switch feeTier {
	case 100:
		return 1
	case 500:
		return 10
	case 3000:
		return 60
	case 10000:
		return 200
	default:
		return 60
	}
}

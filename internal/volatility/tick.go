package volatility

import "math"

const (
	// MinTick and MaxTick bound the V3 tick grid.
	MinTick int32 = -887272
	MaxTick int32 = 887272

	tickBase = 1.0001
)

// TickToPrice returns 1.0001^tick (token1 per token0, raw units).
func TickToPrice(tick float64) float64 {
	return math.Pow(tickBase, tick)
}

// SqrtPriceAtTick returns sqrt(1.0001^tick).
func SqrtPriceAtTick(tick float64) float64 {
	return math.Pow(tickBase, tick/2)
}

// RangeBottom returns the lower boundary of the tick-spacing interval that contains tick.
func RangeBottom(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && (tick < 0) != (spacing < 0) {
		q--
	}
	return q * spacing
}

// ClampTick keeps a tick inside [MinTick, MaxTick].
func ClampTick(tick int64) int32 {
	if tick < int64(MinTick) {
		return MinTick
	}
	if tick > int64(MaxTick) {
		return MaxTick
	}
	return int32(tick)
}

// Window returns the inclusive tick bounds spanning n tick spacings on either side of
// the current tick. n <= 0 selects the full tick range.
func Window(currentTick, spacing int32, n int) (int32, int32) {
	if n <= 0 || spacing <= 0 {
		return MinTick, MaxTick
	}
	bottom := int64(RangeBottom(currentTick, spacing))
	span := int64(n) * int64(spacing)
	return ClampTick(bottom - span), ClampTick(bottom + int64(spacing) + span)
}

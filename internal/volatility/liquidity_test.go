package volatility

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volScope/internal/model"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid int: %s", s)
	}
	return v
}

func TestActiveLiquidityCumulativeSum(t *testing.T) {
	records := []model.TickLiquidityRecord{
		{TickIdx: -120, LiquidityNet: big.NewInt(500)},
		{TickIdx: -60, LiquidityNet: big.NewInt(300)},
		{TickIdx: 0, LiquidityNet: big.NewInt(-100)},
		{TickIdx: 60, LiquidityNet: big.NewInt(-200)},
		{TickIdx: 120, LiquidityNet: big.NewInt(-500)},
	}

	tests := []struct {
		name string
		tick int32
		want int64
	}{
		{name: "below zero", tick: -61, want: 500},
		{name: "on boundary", tick: -60, want: 800},
		{name: "inside interval", tick: 30, want: 700},
		{name: "upper interval", tick: 119, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ActiveLiquidity(records, tt.tick)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Int64() != tt.want {
				t.Fatalf("liquidity mismatch: %s != %d", got, tt.want)
			}
		})
	}
}

func TestActiveLiquidityOrderIndependent(t *testing.T) {
	chunkA := []model.TickLiquidityRecord{
		{TickIdx: 60, LiquidityNet: big.NewInt(-200)},
		{TickIdx: -120, LiquidityNet: big.NewInt(500)},
	}
	chunkB := []model.TickLiquidityRecord{
		{TickIdx: 0, LiquidityNet: big.NewInt(-100)},
		{TickIdx: -60, LiquidityNet: big.NewInt(300)},
	}

	forward := append(append([]model.TickLiquidityRecord{}, chunkA...), chunkB...)
	reverse := append(append([]model.TickLiquidityRecord{}, chunkB...), chunkA...)

	a, err := ActiveLiquidity(forward, 10)
	require.NoError(t, err)
	b, err := ActiveLiquidity(reverse, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, int64(700), a.Int64())
	assert.Equal(t, 60, int(chunkA[0].TickIdx), "input must not be reordered")
}

func TestActiveLiquidityNonPositive(t *testing.T) {
	tests := []struct {
		name    string
		records []model.TickLiquidityRecord
	}{
		{name: "empty", records: nil},
		{name: "zero", records: []model.TickLiquidityRecord{
			{TickIdx: -60, LiquidityNet: big.NewInt(100)},
			{TickIdx: 0, LiquidityNet: big.NewInt(-100)},
		}},
		{name: "negative", records: []model.TickLiquidityRecord{
			{TickIdx: -60, LiquidityNet: big.NewInt(-100)},
		}},
		{name: "only above", records: []model.TickLiquidityRecord{
			{TickIdx: 600, LiquidityNet: big.NewInt(100)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ActiveLiquidity(tt.records, 10)
			if !errors.Is(err, model.ErrDataInconsistency) {
				t.Fatalf("expected data inconsistency, got %v", err)
			}
		})
	}
}

func TestTokenAmountsClosedForm(t *testing.T) {
	l := big.NewInt(1_000_000)

	amount0, amount1, err := TokenAmounts(l, 1, 2, 0, 0)
	require.NoError(t, err)

	sqrtP := math.Sqrt(1.0001)
	want1 := 1e6 * (sqrtP - 1)
	want0 := 1e6 * (1/sqrtP - 1/1.0001)

	assert.InEpsilon(t, want0, amount0, 1e-6)
	assert.InEpsilon(t, want1, amount1, 1e-6)
	assert.InEpsilon(t, 49.99375068751, amount0, 1e-6)
	assert.InEpsilon(t, 49.99875006240, amount1, 1e-6)

	// At the geometric midpoint both legs are worth the same.
	price := AdjustedPrice(1, 0, 0)
	assert.InEpsilon(t, amount1, amount0*price, 1e-9)
}

func TestTokenAmountsDecimals(t *testing.T) {
	l := big.NewInt(1_000_000)

	raw0, raw1, err := TokenAmounts(l, 1, 2, 0, 0)
	require.NoError(t, err)
	adj0, adj1, err := TokenAmounts(l, 1, 2, 6, 18)
	require.NoError(t, err)

	assert.InEpsilon(t, raw0/1e6, adj0, 1e-12)
	assert.InEpsilon(t, raw1/1e18, adj1, 1e-12)
}

func TestTokenAmountsRangeEdges(t *testing.T) {
	l := big.NewInt(1_000_000)

	// On the lower boundary the position is entirely token0.
	amount0, amount1, err := TokenAmounts(l, -120, 60, 0, 0)
	require.NoError(t, err)
	assert.Greater(t, amount0, 0.0)
	assert.InDelta(t, 0, amount1, 1e-9)

	// Negative ticks use the floor interval.
	amount0, amount1, err = TokenAmounts(l, -61, 60, 0, 0)
	require.NoError(t, err)
	assert.Greater(t, amount0, 0.0)
	assert.Greater(t, amount1, 0.0)
}

func TestTokenAmountsInvalid(t *testing.T) {
	_, _, err := TokenAmounts(big.NewInt(10), 0, 0, 0, 0)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	_, _, err = TokenAmounts(big.NewInt(0), 0, 60, 0, 0)
	assert.ErrorIs(t, err, model.ErrDataInconsistency)
}

func TestRangeBottom(t *testing.T) {
	tests := []struct {
		tick, spacing, want int32
	}{
		{tick: 0, spacing: 60, want: 0},
		{tick: 59, spacing: 60, want: 0},
		{tick: 60, spacing: 60, want: 60},
		{tick: -1, spacing: 60, want: -60},
		{tick: -60, spacing: 60, want: -60},
		{tick: -61, spacing: 60, want: -120},
		{tick: 204741, spacing: 60, want: 204720},
		{tick: 7, spacing: 1, want: 7},
	}
	for _, tt := range tests {
		if got := RangeBottom(tt.tick, tt.spacing); got != tt.want {
			t.Fatalf("RangeBottom(%d, %d) = %d, want %d", tt.tick, tt.spacing, got, tt.want)
		}
	}
}

func TestWindow(t *testing.T) {
	lo, hi := Window(204741, 60, 0)
	if lo != MinTick || hi != MaxTick {
		t.Fatalf("full range mismatch: %d %d", lo, hi)
	}

	lo, hi = Window(204741, 60, 10)
	if lo != 204120 || hi != 205380 {
		t.Fatalf("window mismatch: %d %d", lo, hi)
	}

	lo, hi = Window(887200, 200, 5)
	if hi != MaxTick {
		t.Fatalf("upper bound not clamped: %d", hi)
	}
	if lo != 886200 {
		t.Fatalf("lower bound mismatch: %d", lo)
	}
}

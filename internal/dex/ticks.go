package dex

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"volScope/internal/model"
)

const (
	defaultScanConcurrency = 8
	bitsPerWord            = 256
)

// WithConcurrency bounds the number of in-flight eth_calls while scanning ticks.
func (r *PoolReader) WithConcurrency(n int) *PoolReader {
	if n > 0 {
		r.concurrency = n
	}
	return r
}

// FetchTicks scans the tick bitmap words covering [lo, hi] and reads liquidityNet for
// every initialized tick. Records are sorted by index.
func (r *PoolReader) FetchTicks(ctx context.Context, poolID string, lo, hi int32) ([]model.TickLiquidityRecord, error) {
	if lo > hi {
		return nil, fmt.Errorf("to tick must be >= from tick")
	}
	meta, err := r.FetchPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	spacing := meta.TickSpacing
	if spacing <= 0 {
		return nil, fmt.Errorf("tick spacing %d: %w", spacing, model.ErrDataUnavailable)
	}
	pool := common.HexToAddress(poolID)

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	firstWord, _ := Position(Compress(lo, spacing))
	lastWord, _ := Position(Compress(hi, spacing))

	var (
		mu    sync.Mutex
		ticks []int32
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)
	for word := int32(firstWord); word <= int32(lastWord); word++ {
		word := int16(word)
		group.Go(func() error {
			values, err := r.call(groupCtx, pool, poolABI, "tickBitmap", word)
			if err != nil {
				return err
			}
			bitmap, err := asBigInt(values[0])
			if err != nil {
				return fmt.Errorf("tickBitmap: %w: %v", model.ErrDataUnavailable, err)
			}
			found := InitializedTicks(word, bitmap, spacing)
			mu.Lock()
			for _, tick := range found {
				if tick >= lo && tick <= hi {
					ticks = append(ticks, tick)
				}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	records := make([]model.TickLiquidityRecord, len(ticks))
	group, groupCtx = errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)
	for i, tick := range ticks {
		i, tick := i, tick
		group.Go(func() error {
			values, err := r.call(groupCtx, pool, poolABI, "ticks", big.NewInt(int64(tick)))
			if err != nil {
				return err
			}
			if len(values) < 2 {
				return fmt.Errorf("ticks(%d) returned %d values: %w", tick, len(values), model.ErrDataUnavailable)
			}
			net, err := asBigInt(values[1])
			if err != nil {
				return fmt.Errorf("ticks(%d) liquidityNet: %w: %v", tick, model.ErrDataUnavailable, err)
			}
			records[i] = model.TickLiquidityRecord{TickIdx: tick, LiquidityNet: net}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no initialized ticks in [%d, %d]: %w", lo, hi, model.ErrDataUnavailable)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TickIdx < records[j].TickIdx
	})

	r.logger.Debug("tick bitmap scanned",
		zap.String("pool", meta.ID),
		zap.Int32("from", lo),
		zap.Int32("to", hi),
		zap.Int("words", lastWord-firstWord+1),
		zap.Int("ticks", len(records)),
	)
	return records, nil
}

// Compress divides tick by spacing rounding toward negative infinity.
func Compress(tick, spacing int32) int32 {
	compressed := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		compressed--
	}
	return compressed
}

// Position splits a compressed tick into its bitmap word and bit index.
func Position(compressed int32) (int, uint8) {
	return int(compressed >> 8), uint8(compressed & 0xff)
}

// InitializedTicks lists the ticks flagged in one bitmap word.
func InitializedTicks(word int16, bitmap *big.Int, spacing int32) []int32 {
	if bitmap == nil || bitmap.Sign() == 0 {
		return nil
	}
	ticks := make([]int32, 0)
	for bit := 0; bit < bitsPerWord; bit++ {
		if bitmap.Bit(bit) == 0 {
			continue
		}
		compressed := int32(word)*bitsPerWord + int32(bit)
		ticks = append(ticks, compressed*spacing)
	}
	return ticks
}

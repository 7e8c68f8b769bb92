package subgraph

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"volScope/internal/fetch"
	"volScope/internal/model"
)

type tickResult struct {
	TickIdx      string `json:"tickIdx"`
	LiquidityNet string `json:"liquidityNet"`
}

// FetchTicks returns the initialized ticks in [lo, hi] sorted by index.
func (c *Client) FetchTicks(ctx context.Context, poolID string, lo, hi int32) ([]model.TickLiquidityRecord, error) {
	chunk := c.tickChunk
	if chunk <= 0 {
		chunk = int64(hi) - int64(lo) + 1
	}
	ranges, err := fetch.SplitTickRange(lo, hi, chunk)
	if err != nil {
		return nil, fmt.Errorf("split tick window: %w", err)
	}

	records := make([]model.TickLiquidityRecord, 0)
	for _, r := range ranges {
		page, err := c.fetchTickRange(ctx, strings.ToLower(poolID), r)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no initialized ticks in [%d, %d]: %w", lo, hi, model.ErrDataUnavailable)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TickIdx < records[j].TickIdx
	})
	for i := 1; i < len(records); i++ {
		if records[i].TickIdx == records[i-1].TickIdx {
			return nil, fmt.Errorf("duplicate tick %d: %w", records[i].TickIdx, model.ErrDataUnavailable)
		}
	}

	c.logger.Debug("ticks fetched",
		zap.String("pool", poolID),
		zap.Int32("from", lo),
		zap.Int32("to", hi),
		zap.Int("chunks", len(ranges)),
		zap.Int("ticks", len(records)),
	)
	return records, nil
}

// fetchTickRange pages through one chunk using the last tick index as cursor.
func (c *Client) fetchTickRange(ctx context.Context, poolID string, r fetch.TickRange) ([]model.TickLiquidityRecord, error) {
	records := make([]model.TickLiquidityRecord, 0)
	after := int64(r.From) - 1
	for {
		var data struct {
			Ticks []tickResult `json:"ticks"`
		}
		vars := map[string]any{
			"pool_id": poolID,
			"after":   strconv.FormatInt(after, 10),
			"hi":      strconv.FormatInt(int64(r.To), 10),
			"first":   c.pageSize,
		}
		if err := c.query(ctx, "ticks", ticksQuery, vars, &data); err != nil {
			return nil, err
		}

		for _, raw := range data.Ticks {
			record, err := raw.toModel()
			if err != nil {
				return nil, err
			}
			if int64(record.TickIdx) <= after {
				return nil, fmt.Errorf("tick %d not after cursor %d: %w", record.TickIdx, after, model.ErrDataUnavailable)
			}
			after = int64(record.TickIdx)
			records = append(records, record)
		}

		if len(data.Ticks) < c.pageSize || after >= int64(r.To) {
			return records, nil
		}
	}
}

func (t tickResult) toModel() (model.TickLiquidityRecord, error) {
	idx, err := strconv.ParseInt(strings.TrimSpace(t.TickIdx), 10, 32)
	if err != nil {
		return model.TickLiquidityRecord{}, fmt.Errorf("parse tickIdx %q: %w", t.TickIdx, model.ErrDataUnavailable)
	}
	net, ok := new(big.Int).SetString(strings.TrimSpace(t.LiquidityNet), 10)
	if !ok {
		return model.TickLiquidityRecord{}, fmt.Errorf("parse liquidityNet %q: %w", t.LiquidityNet, model.ErrDataUnavailable)
	}
	return model.TickLiquidityRecord{TickIdx: int32(idx), LiquidityNet: net}, nil
}

package subgraph

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"volScope/internal/model"
)

type tokenResult struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals string `json:"decimals"`
}

type poolResult struct {
	ID        string      `json:"id"`
	Tick      *string     `json:"tick"`
	SqrtPrice string      `json:"sqrtPrice"`
	Liquidity string      `json:"liquidity"`
	FeeTier   string      `json:"feeTier"`
	Token0    tokenResult `json:"token0"`
	Token1    tokenResult `json:"token1"`
}

// FetchPool loads the pool snapshot. An unknown pool id returns model.ErrNotFound.
func (c *Client) FetchPool(ctx context.Context, poolID string) (model.PoolMetadata, error) {
	var data struct {
		Pools []poolResult `json:"pools"`
	}
	vars := map[string]any{"pool_id": strings.ToLower(poolID)}
	if err := c.query(ctx, "pool", poolQuery, vars, &data); err != nil {
		return model.PoolMetadata{}, err
	}
	if len(data.Pools) == 0 {
		return model.PoolMetadata{}, fmt.Errorf("pool %s: %w", poolID, model.ErrNotFound)
	}
	return data.Pools[0].toModel()
}

func (p poolResult) toModel() (model.PoolMetadata, error) {
	if p.Tick == nil || strings.TrimSpace(*p.Tick) == "" {
		return model.PoolMetadata{}, fmt.Errorf("pool %s has no current tick: %w", p.ID, model.ErrDataUnavailable)
	}
	tick, err := strconv.ParseInt(strings.TrimSpace(*p.Tick), 10, 32)
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("parse tick %q: %w", *p.Tick, model.ErrDataUnavailable)
	}
	fee, err := strconv.ParseUint(strings.TrimSpace(p.FeeTier), 10, 32)
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("parse fee tier %q: %w", p.FeeTier, model.ErrDataUnavailable)
	}
	if p.Liquidity != "" {
		if _, ok := new(big.Int).SetString(p.Liquidity, 10); !ok {
			return model.PoolMetadata{}, fmt.Errorf("parse liquidity %q: %w", p.Liquidity, model.ErrDataUnavailable)
		}
	}
	token0, err := p.Token0.toModel()
	if err != nil {
		return model.PoolMetadata{}, err
	}
	token1, err := p.Token1.toModel()
	if err != nil {
		return model.PoolMetadata{}, err
	}

	return model.PoolMetadata{
		ID:           strings.ToLower(p.ID),
		CurrentTick:  int32(tick),
		FeeTier:      uint32(fee),
		TickSpacing:  model.TickSpacingForFee(uint32(fee)),
		SqrtPriceX96: p.SqrtPrice,
		Liquidity:    p.Liquidity,
		Token0:       token0,
		Token1:       token1,
		Source:       model.SourceSubgraph,
	}, nil
}

func (t tokenResult) toModel() (model.TokenMeta, error) {
	decimals, err := strconv.ParseUint(strings.TrimSpace(t.Decimals), 10, 8)
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse %s decimals %q: %w", t.Symbol, t.Decimals, model.ErrDataUnavailable)
	}
	return model.TokenMeta{
		Address:  strings.ToLower(t.ID),
		Decimals: uint8(decimals),
		Symbol:   t.Symbol,
		Name:     t.Name,
	}, nil
}

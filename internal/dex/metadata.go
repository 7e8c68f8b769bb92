package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"volScope/internal/model"
)

// ContractCaller executes read-only contract calls. *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// PoolMetaCache caches pool metadata by address.
type PoolMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.PoolMetadata
}

func NewPoolMetaCache() *PoolMetaCache {
	return &PoolMetaCache{data: make(map[common.Address]model.PoolMetadata)}
}

func (c *PoolMetaCache) Get(address common.Address) (model.PoolMetadata, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *PoolMetaCache) Set(address common.Address, meta model.PoolMetadata) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// PoolReader reads V3 pool state over JSON-RPC. All reads of one reader are pinned to
// the same block so that metadata and ticks describe one snapshot.
type PoolReader struct {
	caller      ContractCaller
	block       *big.Int
	pools       *PoolMetaCache
	tokens      *TokenMetaCache
	logger      *zap.Logger
	concurrency int
	timeout     time.Duration
}

// NewPoolReader creates a reader. A nil block reads at the latest block.
func NewPoolReader(caller ContractCaller, block *big.Int, logger *zap.Logger) *PoolReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolReader{
		caller:      caller,
		block:       block,
		pools:       NewPoolMetaCache(),
		tokens:      NewTokenMetaCache(),
		logger:      logger,
		concurrency: defaultScanConcurrency,
	}
}

// FetchPool loads the pool snapshot and its token metadata.
func (r *PoolReader) FetchPool(ctx context.Context, poolID string) (model.PoolMetadata, error) {
	if r == nil || r.caller == nil {
		return model.PoolMetadata{}, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(poolID) {
		return model.PoolMetadata{}, fmt.Errorf("invalid pool address %q: %w", poolID, model.ErrNotFound)
	}
	pool := common.HexToAddress(poolID)
	if meta, ok := r.pools.Get(pool); ok {
		return meta, nil
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "token0")
	if err != nil {
		return model.PoolMetadata{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("token0: %w: %v", model.ErrDataUnavailable, err)
	}

	values, err = r.call(ctx, pool, poolABI, "token1")
	if err != nil {
		return model.PoolMetadata{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("token1: %w: %v", model.ErrDataUnavailable, err)
	}

	values, err = r.call(ctx, pool, poolABI, "fee")
	if err != nil {
		return model.PoolMetadata{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("fee: %w: %v", model.ErrDataUnavailable, err)
	}

	values, err = r.call(ctx, pool, poolABI, "tickSpacing")
	if err != nil {
		return model.PoolMetadata{}, err
	}
	tickSpacing, err := int24Value(values[0])
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("tick spacing: %w: %v", model.ErrDataUnavailable, err)
	}

	values, err = r.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return model.PoolMetadata{}, err
	}
	if len(values) < 2 {
		return model.PoolMetadata{}, fmt.Errorf("slot0 returned %d values: %w", len(values), model.ErrDataUnavailable)
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("slot0 sqrtPriceX96: %w: %v", model.ErrDataUnavailable, err)
	}
	tick, err := int24Value(values[1])
	if err != nil {
		return model.PoolMetadata{}, fmt.Errorf("slot0 tick: %w: %v", model.ErrDataUnavailable, err)
	}

	meta := model.PoolMetadata{
		ID:           strings.ToLower(pool.Hex()),
		CurrentTick:  tick,
		FeeTier:      uint32(feeInt.Uint64()),
		TickSpacing:  tickSpacing,
		SqrtPriceX96: sqrtPrice.String(),
		Source:       model.SourceChain,
	}

	if values, err := r.call(ctx, pool, poolABI, "liquidity"); err == nil {
		if liq, err := asBigInt(values[0]); err == nil {
			meta.Liquidity = liq.String()
		}
	} else {
		r.logger.Debug("liquidity call failed", zap.String("pool", pool.Hex()), zap.Error(err))
	}

	if meta.Token0, err = r.tokenMeta(ctx, token0); err != nil {
		return model.PoolMetadata{}, fmt.Errorf("token0 metadata: %w", err)
	}
	if meta.Token1, err = r.tokenMeta(ctx, token1); err != nil {
		return model.PoolMetadata{}, fmt.Errorf("token1 metadata: %w", err)
	}

	r.pools.Set(pool, meta)
	return meta, nil
}

func (r *PoolReader) tokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := r.tokens.Get(token); ok {
		return meta, nil
	}
	meta, err := FetchTokenMeta(ctx, r.caller, token, r.block, r.logger)
	if err != nil {
		return model.TokenMeta{}, err
	}
	r.tokens.Set(token, meta)
	return meta, nil
}

// WithTimeout bounds every eth_call issued by the reader.
func (r *PoolReader) WithTimeout(d time.Duration) *PoolReader {
	if d > 0 {
		r.timeout = d
	}
	return r
}

func (r *PoolReader) call(ctx context.Context, pool common.Address, poolABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return callMethod(ctx, r.caller, pool, poolABI, method, r.block, args...)
}

// callMethod packs, calls and unpacks one view method. An empty response means the
// address carries no such contract.
func callMethod(ctx context.Context, caller ContractCaller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w: %w", method, model.ErrUpstreamUnreachable, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s on %s returned no data: %w", method, to.Hex(), model.ErrNotFound)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w: %v", method, model.ErrDataUnavailable, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: %w", method, model.ErrDataUnavailable)
	}
	return values, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Decimals are required; symbol
// and name fall back to their bytes32 variants and are left empty when both fail.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, block *big.Int, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: strings.ToLower(token.Hex())}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20StringABI.load()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI.load()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, "decimals", block)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, fmt.Errorf("decimals: %w: %v", model.ErrDataUnavailable, err)
	}
	meta.Decimals = decimals

	meta.Symbol = textField(ctx, caller, token, block, "symbol", stringABI, bytes32ABI, logger)
	meta.Name = textField(ctx, caller, token, block, "name", stringABI, bytes32ABI, logger)
	return meta, nil
}

func textField(ctx context.Context, caller ContractCaller, token common.Address, block *big.Int, method string, stringABI, bytes32ABI abi.ABI, logger *zap.Logger) string {
	if values, err := callMethod(ctx, caller, token, stringABI, method, block); err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err := callMethod(ctx, caller, token, bytes32ABI, method, block)
	if err == nil {
		if text, ok := bytes32ToString(values[0]); ok {
			return text
		}
	}
	logger.Debug("token text call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24Value(value interface{}) (int32, error) {
	v, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	return int24FromBig(v)
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}

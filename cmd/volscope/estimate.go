package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"volScope/internal/chain"
	"volScope/internal/config"
	"volScope/internal/dex"
	"volScope/internal/estimate"
	"volScope/internal/fetch"
	"volScope/internal/model"
	"volScope/internal/report"
	"volScope/internal/storage"
	"volScope/internal/storage/postgres"
	"volScope/internal/subgraph"
)

func runEstimate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	_, poolID, err := fetch.ParsePoolID(cfg.Pool)
	if err != nil {
		return err
	}
	date, err := config.ParseDate(cfg.Date, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subgraphClient := subgraph.NewClient(cfg.SubgraphURL,
		subgraph.WithAPIKey(cfg.APIKey),
		subgraph.WithTimeout(cfg.Timeout),
		subgraph.WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
		subgraph.WithTickChunk(cfg.TickChunk),
		subgraph.WithLogger(logger.Named("subgraph")),
	)

	var (
		pools estimate.PoolSource = subgraphClient
		ticks estimate.TickSource = subgraphClient
	)
	if cfg.RPCURL != "" {
		reader, closeChain, err := openPoolReader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeChain()

		pools = reader
		if cfg.TickSource == config.TickSourceChain {
			ticks = reader
		}
	}

	sinks := make([]storage.Sink, 0, 2)
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		sinks = append(sinks, store)
	}

	estimator := estimate.NewEstimator(estimate.Config{
		TickWindow:  cfg.TickWindow,
		Stablecoins: cfg.Stablecoins,
	}, pools, subgraphClient, ticks, logger, sinks...)

	logger.Info("estimate start",
		zap.String("pool", poolID),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("subgraph", cfg.SubgraphURL),
		zap.String("tick_source", cfg.TickSource),
		zap.Int("tick_window", cfg.TickWindow),
		zap.Int64("tick_chunk", cfg.TickChunk),
		zap.Bool("rpc", cfg.RPCURL != ""),
		zap.Int("sinks", len(sinks)),
	)

	result, err := estimator.Run(ctx, poolID, date)
	if err != nil {
		logError(logger, err)
		return err
	}

	return report.Render(cmd.OutOrStdout(), cfg.Format, result)
}

// openPoolReader dials the RPC endpoint and pins all reads to the latest block.
func openPoolReader(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dex.PoolReader, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	chainClient, err := chain.NewClient(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w: %w", model.ErrUpstreamUnreachable, err)
	}

	var block uint64
	err = fetch.Retry{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff}.Do(dialCtx, func(ctx context.Context) error {
		var callErr error
		block, callErr = chainClient.LatestBlockNumber(ctx)
		if callErr != nil {
			return fmt.Errorf("latest block: %w: %w", model.ErrUpstreamUnreachable, callErr)
		}
		return nil
	})
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}

	chainID, err := chainClient.GetChainID(dialCtx)
	if err != nil {
		chainClient.Close()
		return nil, nil, fmt.Errorf("get chain id: %w: %w", model.ErrUpstreamUnreachable, err)
	}

	logger.Info("rpc connected", zap.String("chain_id", chainID.String()), zap.Uint64("block", block))

	reader := dex.NewPoolReader(chainClient, new(big.Int).SetUint64(block), logger.Named("chain")).WithTimeout(cfg.Timeout)
	return reader, chainClient.Close, nil
}

func logError(logger *zap.Logger, err error) {
	fields := []zap.Field{zap.Error(err)}
	var stageErr *model.StageError
	if errors.As(err, &stageErr) {
		fields = append(fields, zap.String("stage", stageErr.Stage))
	}
	for _, kind := range []error{model.ErrNotFound, model.ErrDataUnavailable, model.ErrDataInconsistency, model.ErrUpstreamUnreachable} {
		if errors.Is(err, kind) {
			fields = append(fields, zap.String("kind", kind.Error()))
			break
		}
	}
	logger.Error("estimate failed", fields...)
}

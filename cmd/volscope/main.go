package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "volscope",
		Short:        "Uniswap v3 implied volatility estimator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the annualized implied volatility of a pool",
		RunE:  runEstimate,
	}

	estimateCmd.Flags().String("pool", "", "pool address")
	estimateCmd.Flags().String("subgraph-url", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3", "Uniswap v3 subgraph endpoint")
	estimateCmd.Flags().String("api-key", "", "subgraph gateway API key (sent as bearer token)")
	estimateCmd.Flags().String("date", "", "volume day (YYYY-MM-DD, YYYYMMDD, RFC3339 or unix seconds), default yesterday UTC")
	estimateCmd.Flags().Int("tick-window", 0, "tick spacings fetched on either side of the current tick, 0 means the full range")
	estimateCmd.Flags().Int64("tick-chunk", 0, "ticks per subgraph chunk, 0 means a single chunk")
	estimateCmd.Flags().String("tick-source", "subgraph", "tick source (subgraph, chain)")
	estimateCmd.Flags().String("rpc", "", "JSON-RPC URL for on-chain pool metadata and ticks")
	estimateCmd.Flags().StringSlice("stablecoins", nil, "symbols valued at one USD (comma-separated)")
	estimateCmd.Flags().String("format", "text", "report format (text, json)")
	estimateCmd.Flags().String("out", "", "append the estimate to this JSONL file")
	estimateCmd.Flags().String("pg-dsn", "", "Postgres DSN for estimate persistence")
	estimateCmd.Flags().Duration("timeout", 30*time.Second, "per-request timeout")
	estimateCmd.Flags().Int("max-retries", 0, "retries for unreachable upstreams")
	estimateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	estimateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(estimateCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print estimates recorded in a JSONL history file",
		RunE:  runHistory,
	}

	historyCmd.Flags().String("in", "", "input estimates JSONL")
	historyCmd.Flags().String("pool", "", "only show this pool")
	historyCmd.Flags().String("pg-dsn", "", "read the stored estimate of --pool on --date from Postgres")
	historyCmd.Flags().String("date", "", "day of the stored estimate, default yesterday UTC")

	root.AddCommand(historyCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

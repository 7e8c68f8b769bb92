package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"volScope/internal/config"
	"volScope/internal/fetch"
	"volScope/internal/model"
	"volScope/internal/storage"
	"volScope/internal/storage/postgres"
)

func runHistory(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetString("in")
	dsn, _ := cmd.Flags().GetString("pg-dsn")
	pool, _ := cmd.Flags().GetString("pool")
	pool = strings.ToLower(strings.TrimSpace(pool))

	if dsn != "" {
		date, _ := cmd.Flags().GetString("date")
		return historyFromPostgres(cmd.Context(), cmd.OutOrStdout(), dsn, pool, date)
	}
	if in == "" {
		return fmt.Errorf("input file or pg-dsn is required")
	}

	estimates, err := storage.ReadEstimates(in)
	if err != nil {
		return err
	}

	selected := make([]model.Estimate, 0, len(estimates))
	for _, estimate := range estimates {
		if pool != "" && estimate.PoolDetails.ID != pool {
			continue
		}
		selected = append(selected, estimate)
	}
	return printHistory(cmd.OutOrStdout(), selected)
}

// historyFromPostgres prints the stored estimate of one pool for one day.
func historyFromPostgres(ctx context.Context, out io.Writer, dsn, pool, date string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if pool == "" {
		return fmt.Errorf("pool is required with pg-dsn")
	}
	_, poolID, err := fetch.ParsePoolID(pool)
	if err != nil {
		return err
	}
	day, err := config.ParseDate(date, time.Now())
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	estimate, ok, err := store.LoadEstimate(ctx, poolID, day.Format("2006-01-02"))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no estimate for pool %s on %s: %w", poolID, day.Format("2006-01-02"), model.ErrNotFound)
	}
	return printHistory(out, []model.Estimate{estimate})
}

func printHistory(out io.Writer, estimates []model.Estimate) error {
	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(out, "%-12s %-44s %-14s %18s %18s %10s\n", "date", "pool", "pair", "volume_usd", "liquidity", "iv"); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	for _, estimate := range estimates {
		pair := estimate.PoolDetails.Token0.Symbol + "/" + estimate.PoolDetails.Token1.Symbol
		if _, err := p.Fprintf(out, "%-12s %-44s %-14s %18.0f %18.2f %9.2f%%\n",
			estimate.Date,
			estimate.PoolDetails.ID,
			pair,
			estimate.DailyVolumeUSD,
			estimate.LiquidityUSD,
			estimate.ImpliedVolatilityPercent(),
		); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"io/fs"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"volScope/internal/model"
)

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestMigrationFiles(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migration files: %v", err)
	}
	if len(files) == 0 || files[0] != "001_pool_volatility.sql" {
		t.Fatalf("unexpected migrations: %v", files)
	}
	for _, file := range files {
		data, err := fs.ReadFile(migrationFS, "migrations/"+file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		if !strings.Contains(string(data), "IF NOT EXISTS") {
			t.Fatalf("migration %s is not idempotent", file)
		}
	}
}

func TestQueueEstimate(t *testing.T) {
	estimate := model.Estimate{
		PoolDetails: model.PoolMetadata{ID: "0xabc", FeeTier: 3000, TickSpacing: 60},
		Date:        "2022-01-01",
		ComputedAt:  time.Now().UTC(),
	}

	batch := &pgx.Batch{}
	if err := queueEstimate(batch, estimate); err != nil {
		t.Fatalf("queue estimate: %v", err)
	}
	if batch.Len() != 2 {
		t.Fatalf("expected pool and estimate statements, got %d", batch.Len())
	}

	estimate.Date = "01/02/2022"
	if err := queueEstimate(&pgx.Batch{}, estimate); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestParseEstimateDate(t *testing.T) {
	day, err := parseEstimateDate(" 2022-01-01 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !day.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date mismatch: %s", day)
	}
	for _, input := range []string{"", "20220101", "2022-13-01", "01/01/2022"} {
		if _, err := parseEstimateDate(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

// TestStoreRoundTrip runs against a live database named by VOLSCOPE_TEST_PG_DSN.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("VOLSCOPE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("VOLSCOPE_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}

	poolID := "0x00000000000000000000000000000000feedbeef"
	estimate := model.Estimate{
		PoolDetails: model.PoolMetadata{
			ID:          poolID,
			CurrentTick: 204741,
			FeeTier:     3000,
			TickSpacing: 60,
			Token0:      model.TokenMeta{Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", Decimals: 6},
			Token1:      model.TokenMeta{Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Symbol: "WETH", Decimals: 18},
			Source:      model.SourceSubgraph,
		},
		Date:              "2022-01-01",
		DailyVolumeUSD:    12386430,
		LiquidityToken0:   1037335.91,
		LiquidityToken1:   435.12,
		Price:             1284.27,
		QuoteToken:        "USDC",
		USDQuoted:         true,
		LiquidityUSD:      1596152.74,
		ActiveLiquidity:   "14859421706103975936",
		ImpliedVolatility: 0.3193,
		TickCount:         5,
		ComputedAt:        time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := store.PutEstimates(ctx, []model.Estimate{estimate}); err != nil {
		t.Fatalf("put estimates: %v", err)
	}
	estimate.ImpliedVolatility = 0.35
	if err := store.PutEstimates(ctx, []model.Estimate{estimate}); err != nil {
		t.Fatalf("upsert estimates: %v", err)
	}

	got, ok, err := store.LoadEstimate(ctx, poolID, "2022-01-01")
	if err != nil {
		t.Fatalf("load estimate: %v", err)
	}
	if !ok {
		t.Fatalf("expected stored estimate")
	}
	if math.Abs(got.ImpliedVolatility-0.35) > 1e-12 {
		t.Fatalf("implied volatility not updated: %v", got.ImpliedVolatility)
	}
	if got.Date != "2022-01-01" || got.PoolDetails.ID != poolID || got.TickCount != 5 {
		t.Fatalf("estimate mismatch: %+v", got)
	}
	if got.PoolDetails.Token0.Symbol != "USDC" || got.PoolDetails.Token1.Decimals != 18 || got.PoolDetails.FeeTier != 3000 {
		t.Fatalf("pool mismatch: %+v", got.PoolDetails)
	}
	if !got.ComputedAt.Equal(estimate.ComputedAt) {
		t.Fatalf("computed at mismatch: %s", got.ComputedAt)
	}

	if _, ok, err := store.LoadEstimate(ctx, poolID, "2021-12-31"); err != nil || ok {
		t.Fatalf("expected no row, got ok=%v err=%v", ok, err)
	}
}

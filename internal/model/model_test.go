package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestGamma(t *testing.T) {
	tests := []struct {
		fee  uint32
		want float64
	}{
		{fee: 100, want: 0.0001},
		{fee: 500, want: 0.0005},
		{fee: 3000, want: 0.003},
		{fee: 10000, want: 0.01},
	}
	for _, tt := range tests {
		got := PoolMetadata{FeeTier: tt.fee}.Gamma()
		if got != tt.want {
			t.Fatalf("Gamma(%d) = %v, want %v", tt.fee, got, tt.want)
		}
	}
}

func TestTickSpacingForFee(t *testing.T) {
	tests := map[uint32]int32{100: 1, 500: 10, 3000: 60, 10000: 200, 2500: 60, 0: 60}
	for fee, want := range tests {
		if got := TickSpacingForFee(fee); got != want {
			t.Fatalf("TickSpacingForFee(%d) = %d, want %d", fee, got, want)
		}
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("pool 0xabc: %w", ErrNotFound)
	err := WrapStage("fetch pool", inner)

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found through stage error")
	}
	if errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("unexpected data unavailable match")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "fetch pool" {
		t.Fatalf("stage mismatch: %v", err)
	}
	if err.Error() != "fetch pool: pool 0xabc: not found" {
		t.Fatalf("message mismatch: %s", err.Error())
	}
	if WrapStage("fetch pool", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestImpliedVolatilityPercent(t *testing.T) {
	estimate := Estimate{ImpliedVolatility: 0.25}
	if estimate.ImpliedVolatilityPercent() != 25 {
		t.Fatalf("percent mismatch: %v", estimate.ImpliedVolatilityPercent())
	}
}

func TestEstimateJSONCarriesPercent(t *testing.T) {
	data, err := json.Marshal(Estimate{Date: "2022-01-01", ImpliedVolatility: 0.25})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["impliedVolatility"] != 0.25 || decoded["impliedVolatilityPercent"] != 25.0 {
		t.Fatalf("volatility keys mismatch: %s", data)
	}
	if decoded["date"] != "2022-01-01" {
		t.Fatalf("date mismatch: %s", data)
	}

	var back Estimate
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ImpliedVolatility != 0.25 || back.Date != "2022-01-01" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

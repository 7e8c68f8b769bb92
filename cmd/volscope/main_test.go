package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"volScope/internal/model"
	"volScope/internal/storage"
)

const testPool = "0x8ad599c3a0ff1de082011efddc58f1908eb6e6d8"

var usdcWethTicks = []struct {
	idx int64
	net string
}{
	{idx: 203760, net: "10000000000000000000"},
	{idx: 204600, net: "5859421706103975936"},
	{idx: 204720, net: "-1000000000000000000"},
	{idx: 204780, net: "-3000000000000000000"},
	{idx: 205980, net: "-11859421706103975936"},
}

func fakeSubgraph(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.Contains(req.Query, "pools("):
			fmt.Fprint(w, `{"data":{"pools":[{"id":"`+testPool+`","tick":"204741","sqrtPrice":"0","liquidity":"14859421706103975936","feeTier":"3000",
				"token0":{"id":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","symbol":"USDC","name":"USD Coin","decimals":"6"},
				"token1":{"id":"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2","symbol":"WETH","name":"Wrapped Ether","decimals":"18"}}]}}`)
		case strings.Contains(req.Query, "poolDayDatas("):
			if req.Variables["id"] != testPool+"-18993" {
				t.Errorf("day id mismatch: %v", req.Variables["id"])
			}
			fmt.Fprint(w, `{"data":{"poolDayDatas":[{"date":1640995200,"volumeUSD":"12386430"}]}}`)
		case strings.Contains(req.Query, "ticks("):
			after, _ := strconv.ParseInt(req.Variables["after"].(string), 10, 64)
			hi, _ := strconv.ParseInt(req.Variables["hi"].(string), 10, 64)
			items := make([]string, 0)
			for _, tick := range usdcWethTicks {
				if tick.idx > after && tick.idx <= hi {
					items = append(items, fmt.Sprintf(`{"tickIdx":"%d","liquidityNet":"%s"}`, tick.idx, tick.net))
				}
			}
			fmt.Fprint(w, `{"data":{"ticks":[`+strings.Join(items, ",")+`]}}`)
		default:
			t.Errorf("unexpected query: %s", req.Query)
		}
	}))
}

func TestEstimateCommand(t *testing.T) {
	server := fakeSubgraph(t)
	defer server.Close()

	history := filepath.Join(t.TempDir(), "estimates.jsonl")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{
		"estimate",
		"--pool", "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8",
		"--subgraph-url", server.URL,
		"--date", "2022-01-01",
		"--tick-chunk", "500000",
		"--out", history,
		"--log-level", "error",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	report := out.String()
	for _, want := range []string{
		"Daily volume of pool for 2022-01-01: 12,386,430$",
		"USDC=1,037,335.91",
		"Implied volatility (annualized)=31.93%",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}

	estimates, err := storage.ReadEstimates(history)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if len(estimates) != 1 || estimates[0].Date != "2022-01-01" {
		t.Fatalf("history mismatch: %+v", estimates)
	}

	var table bytes.Buffer
	root = newRootCmd()
	root.SetOut(&table)
	root.SetArgs([]string{"history", "--in", history, "--pool", testPool})
	if err := root.Execute(); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(table.String(), "USDC/WETH") || !strings.Contains(table.String(), "31.93%") {
		t.Fatalf("history table mismatch:\n%s", table.String())
	}
}

func TestEstimateCommandUnknownPool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"pools":[]}}`)
	}))
	defer server.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"estimate", "--pool", testPool, "--subgraph-url", server.URL, "--log-level", "error"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected error for unknown pool")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no report, got:\n%s", out.String())
	}
}

func TestEstimateCommandRequiresPool(t *testing.T) {
	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"estimate"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without pool")
	}
}

func TestHistoryCommandPostgresArguments(t *testing.T) {
	dsn := "postgres://volscope@127.0.0.1:1/volscope"
	tests := []struct {
		name string
		args []string
		kind error
	}{
		{name: "missing pool", args: []string{"history", "--pg-dsn", dsn, "--date", "2022-01-01"}},
		{name: "invalid pool", args: []string{"history", "--pg-dsn", dsn, "--pool", "0x1234", "--date", "2022-01-01"}, kind: model.ErrNotFound},
		{name: "invalid date", args: []string{"history", "--pg-dsn", dsn, "--pool", testPool, "--date", "01/01/2022"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)
			err := root.Execute()
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if strings.Contains(err.Error(), "connect postgres") {
				t.Fatalf("arguments should be rejected before connecting: %v", err)
			}
		})
	}
}

func TestHistoryCommandRequiresSource(t *testing.T) {
	root := newRootCmd()
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"history"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without input")
	}
}

func TestEstimateCommandInvalidPool(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"estimate", "--pool", "0x1234", "--log-level", "error"})
	err := root.Execute()
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

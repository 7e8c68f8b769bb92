package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"volScope/internal/model"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Render writes the estimate in the requested format.
func Render(w io.Writer, format string, estimate model.Estimate) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return RenderText(w, estimate)
	case FormatJSON:
		return RenderJSON(w, estimate)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// RenderText writes a human-readable report with thousands separators.
func RenderText(w io.Writer, estimate model.Estimate) error {
	p := message.NewPrinter(language.English)
	pool := estimate.PoolDetails

	quote := estimate.QuoteToken
	if !estimate.USDQuoted {
		quote += " (no USD stablecoin in pool)"
	}

	lines := []string{
		p.Sprintf("* Pool=%s, %s/%s, fee tier %.2f%%, tick %d, tick spacing %d, source %s",
			pool.ID, pool.Token0.Symbol, pool.Token1.Symbol, pool.Gamma()*100, pool.CurrentTick, pool.TickSpacing, pool.Source),
		p.Sprintf("* Daily volume of pool for %s: %.0f$", estimate.Date, estimate.DailyVolumeUSD),
		p.Sprintf("* Initialized ticks fetched: %d, active liquidity L=%s", estimate.TickCount, estimate.ActiveLiquidity),
		p.Sprintf("* Current tick liquidity: %s=%.2f, %s=%.2f",
			pool.Token0.Symbol, estimate.LiquidityToken0, pool.Token1.Symbol, estimate.LiquidityToken1),
		p.Sprintf("* Price=%.2f, total current tick liquidity=%.2f %s", estimate.Price, estimate.LiquidityUSD, quote),
		p.Sprintf("* Implied volatility (annualized)=%.2f%%", estimate.ImpliedVolatilityPercent()),
	}

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// RenderJSON writes the estimate as indented JSON.
func RenderJSON(w io.Writer, estimate model.Estimate) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(estimate); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

package volatility

import "strings"

// DefaultStablecoins are the symbols treated as worth one USD.
var DefaultStablecoins = []string{"USDC", "DAI", "USDT", "TUSD", "LUSD", "BUSD", "GUSD", "UST"}

// Valuation is the combined value of both token legs in a single quote token.
type Valuation struct {
	Price      float64
	Total      float64
	QuoteToken string
	USDQuoted  bool
}

// Quoter values token amounts using the stablecoin leg of a pool.
type Quoter struct {
	stable map[string]struct{}
}

func NewQuoter(symbols []string) *Quoter {
	if len(symbols) == 0 {
		symbols = DefaultStablecoins
	}
	stable := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		symbol = normalizeSymbol(symbol)
		if symbol == "" {
			continue
		}
		stable[symbol] = struct{}{}
	}
	return &Quoter{stable: stable}
}

// IsStable reports whether symbol is a USD stablecoin.
func (q *Quoter) IsStable(symbol string) bool {
	_, ok := q.stable[normalizeSymbol(symbol)]
	return ok
}

// Value prices both legs in the stablecoin when the pool has one. Otherwise it quotes
// in whichever token makes the price at least 1 and reports USDQuoted=false.
func (q *Quoter) Value(symbol0, symbol1 string, adjustedPrice, amount0, amount1 float64) Valuation {
	stable0 := q.IsStable(symbol0)
	stable1 := q.IsStable(symbol1)

	switch {
	case stable1:
		return quoteInToken1(symbol1, adjustedPrice, amount0, amount1, true)
	case stable0:
		return quoteInToken0(symbol0, adjustedPrice, amount0, amount1, true)
	case adjustedPrice >= 1:
		return quoteInToken1(symbol1, adjustedPrice, amount0, amount1, false)
	default:
		return quoteInToken0(symbol0, adjustedPrice, amount0, amount1, false)
	}
}

func quoteInToken1(symbol string, price, amount0, amount1 float64, usd bool) Valuation {
	return Valuation{
		Price:      price,
		Total:      amount0*price + amount1,
		QuoteToken: symbol,
		USDQuoted:  usd,
	}
}

func quoteInToken0(symbol string, price, amount0, amount1 float64, usd bool) Valuation {
	inverse := 1 / price
	return Valuation{
		Price:      inverse,
		Total:      amount0 + amount1*inverse,
		QuoteToken: symbol,
		USDQuoted:  usd,
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

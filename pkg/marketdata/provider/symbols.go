package provider

import (
	"strings"

	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

const forexSuffix = "=X"

// binanceQuoteAssets are the quote assets recognised on undashed Binance pairs (SOLUSDT).
var binanceQuoteAssets = []string{"USDT", "USDC", "FDUSD", "BUSD", "BTC", "ETH", "BNB"}

// IsForexSymbol reports whether symbol uses the currency pair convention (EURUSD=X).
func IsForexSymbol(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), forexSuffix)
}

// IsCryptoSymbol reports whether symbol uses the BASE-QUOTE crypto convention (BTC-USD).
func IsCryptoSymbol(symbol string) bool {
	base, quote, ok := strings.Cut(symbol, "-")

	return ok && base != "" && quote != "" && !IsForexSymbol(symbol)
}

// PolygonTicker translates a symbol to a Polygon.io ticker.
// BTC-USD becomes X:BTCUSD, EURUSD=X becomes C:EURUSD, stocks are upper-cased.
// Tickers that already carry a market prefix are returned unchanged.
func PolygonTicker(symbol string) string {
	if strings.Contains(symbol, ":") {
		return symbol
	}

	upper := strings.ToUpper(symbol)

	switch {
	case IsForexSymbol(upper):
		return "C:" + strings.TrimSuffix(upper, forexSuffix)
	case IsCryptoSymbol(upper):
		return "X:" + strings.ReplaceAll(upper, "-", "")
	default:
		return upper
	}
}

// BinanceSymbol translates a symbol to a Binance spot pair.
// USD quoted pairs are mapped to USDT since Binance lists no USD spot books.
func BinanceSymbol(symbol string) (string, error) {
	upper := strings.ToUpper(symbol)

	if IsForexSymbol(upper) {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "binance does not list forex pair %s", symbol)
	}

	base, quote, ok := strings.Cut(upper, "-")
	if !ok {
		if isBinancePair(upper) {
			return upper, nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidParameter, "binance only lists crypto pairs, got %s", symbol)
	}

	if base == "" || quote == "" {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid crypto symbol %s", symbol)
	}

	if quote == "USD" {
		quote = "USDT"
	}

	return base + quote, nil
}

func isBinancePair(symbol string) bool {
	for _, quote := range binanceQuoteAssets {
		if len(symbol) > len(quote) && strings.HasSuffix(symbol, quote) {
			return true
		}
	}

	return false
}

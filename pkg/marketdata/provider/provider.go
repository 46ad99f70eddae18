package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type Provider interface {
	// Fetch downloads the daily bars for the given symbol in [startDate, endDate).
	// Bars are returned oldest first. An empty slice with a nil error means the
	// provider has no data for the symbol in that range.
	// Symbols use the Yahoo Finance convention (AAPL, BTC-USD, EURUSD=X); each
	// provider translates them to its own tickers.
	// example:
	// Fetch(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC))
	Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.Bar, error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// Polygon expects the API key as config; Yahoo and Binance accept an optional base URL string.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	baseURL, _ := config.(string)

	switch providerType {
	case ProviderYahoo:
		return NewYahooClient(baseURL)
	case ProviderBinance:
		return NewBinanceClient(baseURL)
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

package provider

import (
	"context"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator used by PolygonClient.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the polygon REST client used by PolygonClient.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIAdapter{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a PolygonClient around an existing API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) Provider {
	return &PolygonClient{
		apiClient: apiClient,
	}
}

// Fetch downloads one-day aggregates for symbol in [startDate, endDate).
func (c *PolygonClient) Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.Bar, error) {
	ticker := PolygonTicker(symbol)
	loc := polygonSessionLocation(ticker)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	bars := make([]types.Bar, 0)

	for iter.Next() {
		bars = append(bars, polygonBar(iter.Item(), loc))
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(), "error iterating polygon aggregates for %s", ticker)
	}

	return bars, nil
}

// polygonBar converts a daily aggregate. Stock aggregates start at midnight New York,
// crypto and forex aggregates at midnight UTC.
func polygonBar(agg models.Agg, loc *time.Location) types.Bar {
	return types.Bar{
		Time:     types.Date(time.Time(agg.Timestamp).In(loc)),
		Open:     agg.Open,
		High:     agg.High,
		Low:      agg.Low,
		Close:    agg.Close,
		Volume:   agg.Volume,
		AdjClose: optional.None[float64](),
	}
}

func polygonSessionLocation(ticker string) *time.Location {
	if strings.HasPrefix(ticker, "X:") || strings.HasPrefix(ticker, "C:") {
		return time.UTC
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}

	return loc
}

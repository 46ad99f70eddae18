package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

// binanceKlineLimit is the maximum page size of the klines endpoint.
const binanceKlineLimit = 1000

// BinanceKlinesService is the subset of the binance klines service used by BinanceClient.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the subset of the binance client used by BinanceClient.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesAdapter{service: a.client.NewKlinesService()}
}

type binanceKlinesAdapter struct {
	service *binance.KlinesService
}

func (a *binanceKlinesAdapter) Symbol(symbol string) BinanceKlinesService {
	a.service.Symbol(symbol)

	return a
}

func (a *binanceKlinesAdapter) Interval(interval string) BinanceKlinesService {
	a.service.Interval(interval)

	return a
}

func (a *binanceKlinesAdapter) StartTime(startTime int64) BinanceKlinesService {
	a.service.StartTime(startTime)

	return a
}

func (a *binanceKlinesAdapter) EndTime(endTime int64) BinanceKlinesService {
	a.service.EndTime(endTime)

	return a
}

func (a *binanceKlinesAdapter) Limit(limit int) BinanceKlinesService {
	a.service.Limit(limit)

	return a
}

func (a *binanceKlinesAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return a.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
}

// NewBinanceClient creates a client for the public Binance market data API.
// An empty baseURL uses the default endpoint.
func NewBinanceClient(baseURL string) (Provider, error) {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	return NewBinanceClientWithAPI(&binanceAPIAdapter{client: client}), nil
}

// NewBinanceClientWithAPI creates a BinanceClient around an existing API client.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient) Provider {
	return &BinanceClient{
		apiClient: apiClient,
	}
}

// Fetch downloads daily klines for symbol in [startDate, endDate), paging through
// the klines endpoint until the range is exhausted.
func (c *BinanceClient) Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.Bar, error) {
	pair, err := BinanceSymbol(symbol)
	if err != nil {
		return nil, err
	}

	endTimeMillis := endDate.UnixMilli()
	currentStartTime := startDate.UnixMilli()
	bars := make([]types.Bar, 0)

	for currentStartTime < endTimeMillis {
		klines, err := c.apiClient.NewKlinesService().
			Symbol(pair).
			Interval("1d").
			StartTime(currentStartTime).
			EndTime(endTimeMillis - 1).
			Limit(binanceKlineLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s from Binance", pair)
		}

		for _, k := range klines {
			if k.OpenTime >= endTimeMillis {
				continue
			}

			bar, err := binanceBar(k)
			if err != nil {
				return nil, err
			}

			bars = append(bars, bar)
		}

		if len(klines) < binanceKlineLimit {
			break
		}

		// close time of the last kline + 1ms avoids duplicates
		currentStartTime = klines[len(klines)-1].CloseTime + 1
	}

	return bars, nil
}

// binanceBar converts a daily kline, opened at midnight UTC, to a bar.
func binanceBar(k *binance.Kline) (types.Bar, error) {
	values := make([]float64, 5)

	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", raw)
		}

		values[i] = v
	}

	return types.Bar{
		Time:     types.Date(time.UnixMilli(k.OpenTime).UTC()),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
		AdjClose: optional.None[float64](),
	}, nil
}

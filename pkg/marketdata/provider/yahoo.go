package provider

import (
	"context"
	"net/http"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-resty/resty/v2"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

const defaultYahooBaseURL = "https://query2.finance.yahoo.com"

// YahooClient downloads daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	client *resty.Client
}

// NewYahooClient creates a Yahoo Finance client. An empty baseURL uses the public endpoint.
func NewYahooClient(baseURL string) (Provider, error) {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Accept", "application/json")

	return &YahooClient{
		client: client,
	}, nil
}

// yahooChart is the response structure of the v8 chart endpoint.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				GMTOffset            int64  `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch downloads daily bars for symbol in [startDate, endDate).
func (c *YahooClient) Fetch(ctx context.Context, symbol string, startDate time.Time, endDate time.Time) ([]types.Bar, error) {
	var chart yahooChart

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(startDate.Unix(), 10),
			"period2":              strconv.FormatInt(endDate.Unix(), 10),
			"interval":             "1d",
			"events":               "div,splits",
			"includeAdjustedClose": "true",
		}).
		SetResult(&chart).
		SetError(&chart).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "yahoo request for %s failed", symbol)
	}

	if chart.Chart.Error != nil {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "yahoo api error for %s: %s", symbol, chart.Chart.Error.Description)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "yahoo returned %s for %s", resp.Status(), symbol)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "unexpected yahoo status %d for %s", resp.StatusCode(), symbol)
	}

	return parseYahooChart(&chart)
}

func parseYahooChart(chart *yahooChart) ([]types.Bar, error) {
	if len(chart.Chart.Result) == 0 {
		return []types.Bar{}, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return []types.Bar{}, nil
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)

	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed,
			"yahoo returned %d timestamps but mismatched price columns", n)
	}

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == n {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	bars := make([]types.Bar, 0, n)

	for i, ts := range result.Timestamp {
		// holidays and halted sessions come back as null rows
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		bar := types.Bar{
			Time:     types.Date(time.Unix(ts, 0).In(loc)),
			Open:     *quote.Open[i],
			High:     *quote.High[i],
			Low:      *quote.Low[i],
			Close:    *quote.Close[i],
			AdjClose: optional.None[float64](),
		}

		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}

		if adjClose != nil && adjClose[i] != nil {
			bar.AdjClose = optional.Some(*adjClose[i])
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// exchangeLocation resolves the exchange time zone, falling back to the fixed
// offset reported in the chart metadata.
func exchangeLocation(name string, gmtOffset int64) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}

	return time.FixedZone("exchange", int(gmtOffset))
}

package marketdata

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/writer"
)

// OnDownloadProgress is called after every instrument with the number of
// instruments done, the total and a short status message.
type OnDownloadProgress func(current, total float64, message string)

// Client downloads every configured instrument and packages it into the LEAN layout.
type Client struct {
	config     Config
	start      time.Time
	end        time.Time
	provider   provider.Provider
	logger     *zap.Logger
	reporter   *Reporter
	sleep      func(time.Duration)
	onProgress OnDownloadProgress
}

// Option customizes a Client.
type Option func(*Client)

// WithProvider replaces the provider built from Config.Provider.
func WithProvider(p provider.Provider) Option {
	return func(c *Client) {
		c.provider = p
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithOutput sets where the SUCCESS and ERROR lines are printed. The default is io.Discard.
func WithOutput(out io.Writer) Option {
	return func(c *Client) {
		c.reporter = NewReporter(out)
	}
}

// WithSleep replaces the function used for the pause between instruments.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithProgress registers a progress callback.
func WithProgress(onProgress OnDownloadProgress) Option {
	return func(c *Client) {
		c.onProgress = onProgress
	}
}

// NewClient validates config and creates a Client for it.
func NewClient(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	start, end, err := config.DateRange()
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:     config,
		start:      start,
		end:        end,
		provider:   nil,
		logger:     zap.NewNop(),
		reporter:   NewReporter(io.Discard),
		sleep:      time.Sleep,
		onProgress: nil,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.provider == nil {
		var providerConfig any = config.ProviderURL
		if config.Provider == provider.ProviderPolygon {
			providerConfig = config.PolygonApiKey
		}

		client.provider, err = provider.NewMarketDataProvider(config.Provider, providerConfig)
		if err != nil {
			return nil, err
		}
	}

	return client, nil
}

// Run processes every group in order. Each instrument is fetched, packaged and
// followed by the configured pause whatever its outcome. A failed or empty
// instrument never stops the run; a cancelled ctx stops it before the next fetch.
func (c *Client) Run(ctx context.Context) Report {
	report := Report{
		Results:   make([]InstrumentResult, 0, len(c.config.Instruments())),
		Cancelled: false,
	}
	total := float64(len(c.config.Instruments()))

	c.logger.Info("Starting download",
		zap.String("provider", string(c.config.Provider)),
		zap.String("start", c.config.StartDate),
		zap.String("end", c.config.EndDate),
		zap.String("root", c.config.OutputRoot),
		zap.Float64("instruments", total),
	)

groups:
	for _, group := range c.config.Groups {
		if c.cancelled(ctx, &report) {
			break
		}

		c.reporter.GroupStarted(group.AssetClass)

		for _, instrument := range group.Instruments() {
			if c.cancelled(ctx, &report) {
				break groups
			}

			result := c.RunInstrument(ctx, instrument)
			report.Results = append(report.Results, result)

			if c.onProgress != nil {
				c.onProgress(float64(len(report.Results)), total, instrument.SourceID+" "+string(result.Status))
			}

			c.sleep(c.config.Pause)
		}
	}

	if !report.Cancelled {
		c.reporter.Completed()
	}

	c.logger.Info("Download finished",
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed()),
		zap.Bool("cancelled", report.Cancelled),
	)

	return report
}

func (c *Client) cancelled(ctx context.Context, report *Report) bool {
	err := ctx.Err()
	if err == nil {
		return false
	}

	c.logger.Warn("Run cancelled", zap.Error(err), zap.Int("completed", len(report.Results)))
	report.Cancelled = true

	return true
}

// RunInstrument fetches and packages a single instrument without pausing.
func (c *Client) RunInstrument(ctx context.Context, instrument Instrument) InstrumentResult {
	logger := c.logger.With(zap.String("symbol", instrument.SourceID), zap.String("id", instrument.OutputID))
	result := InstrumentResult{
		Instrument: instrument,
	}

	c.reporter.Fetching(instrument.SourceID, ProviderDisplayName(c.config.Provider))

	bars, err := c.provider.Fetch(ctx, instrument.SourceID, c.start, c.end)
	if err != nil {
		logger.Error("Fetch failed", zap.Error(err))
		c.reporter.Failed(instrument.SourceID, err)

		result.Status = StatusFailed
		result.SkipReason = err.Error()
		result.Err = errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s", instrument.SourceID)

		return result
	}

	bars = clamp(bars, c.start, c.end)
	if len(bars) == 0 {
		noData := errors.NewNoDataError(instrument.SourceID, c.start, c.end)
		logger.Warn("No data returned", zap.Error(noData))
		c.reporter.NoData(instrument.SourceID)

		result.Status = StatusSkipped
		result.SkipReason = noData.Error()
		result.Err = noData

		return result
	}

	outputDir := instrument.OutputDir(c.config.OutputRoot)

	path, err := writer.Package(bars, instrument.OutputID, outputDir, instrument.Quote)
	if err != nil {
		logger.Error("Packaging failed", zap.String("dir", outputDir), zap.Error(err))
		c.reporter.Failed(instrument.SourceID, err)

		result.Status = StatusFailed
		result.SkipReason = err.Error()
		result.Err = err

		return result
	}

	logger.Debug("Archive written", zap.String("path", path), zap.Int("rows", len(bars)))
	c.reporter.Saved(path)

	result.Status = StatusSuccess
	result.RowsWritten = len(bars)
	result.OutputPath = path

	if c.config.Parquet {
		result.ParquetPath = c.writeParquet(logger, instrument, bars)
	}

	return result
}

// writeParquet mirrors the raw bars next to the archive. Failures are logged
// and leave the archive in place.
func (c *Client) writeParquet(logger *zap.Logger, instrument Instrument, bars []types.Bar) string {
	parquetWriter := writer.NewDuckDBWriter(instrument.ParquetPath(c.config.OutputRoot), instrument.SourceID, logger)

	path, err := writer.WriteAll(parquetWriter, bars)
	if err != nil {
		logger.Warn("Failed to write parquet copy", zap.Error(err))

		return ""
	}

	logger.Debug("Parquet copy written", zap.String("path", path))

	return path
}

// clamp keeps the bars inside [start, end).
func clamp(bars []types.Bar, start, end time.Time) []types.Bar {
	clamped := make([]types.Bar, 0, len(bars))

	for _, bar := range bars {
		if bar.InRange(start, end) {
			clamped = append(clamped, bar)
		}
	}

	return clamped
}

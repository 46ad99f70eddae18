package marketdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-lean-data/internal/version"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/writer"
)

// DateLayout is the layout of the configured start and end dates.
const DateLayout = "2006-01-02"

// AssetClass is the first level of the output layout.
type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassCrypto AssetClass = "crypto"
	AssetClassForex  AssetClass = "forex"
)

// Symbol maps a provider symbol to the identifier used in the archive names.
type Symbol struct {
	Source string `yaml:"source" json:"source" jsonschema:"title=Source,description=Provider symbol (e.g. AAPL or BTC-USD or EURUSD=X)" validate:"required"`
	// ID defaults to the lower-cased source symbol (with the crypto dash and the forex =X suffix removed).
	ID string `yaml:"id,omitempty" json:"id,omitempty" jsonschema:"title=Output ID,description=Archive identifier; derived from the source symbol when empty"`
}

// Group is one configured set of instruments sharing an asset class and market.
type Group struct {
	AssetClass AssetClass `yaml:"assetClass" json:"assetClass" jsonschema:"title=Asset Class,enum=equity,enum=crypto,enum=forex" validate:"required,oneof=equity crypto forex"`
	Market     string     `yaml:"market" json:"market" jsonschema:"title=Market,description=Market directory (e.g. usa or coinbase or oanda)" validate:"required"`
	// Quote selects the bid/ask record layout. Unset means true for forex and false otherwise.
	Quote   *bool    `yaml:"quote,omitempty" json:"quote,omitempty" jsonschema:"title=Quote,description=Write the 9 field quote layout instead of the 6 field trade layout"`
	Symbols []Symbol `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols" validate:"required,min=1,dive"`
}

// Instrument is one resolved unit of work: what to fetch and where to write it.
type Instrument struct {
	SourceID   string
	OutputID   string
	AssetClass AssetClass
	Market     string
	Quote      bool
}

// Config is the immutable run configuration passed to NewClient.
type Config struct {
	Version       string                `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Tool version the file was written for"`
	Provider      provider.ProviderType `yaml:"provider" json:"provider" jsonschema:"title=Provider,enum=yahoo,enum=polygon,enum=binance" validate:"required,oneof=yahoo polygon binance"`
	ProviderURL   string                `yaml:"providerUrl,omitempty" json:"providerUrl,omitempty" jsonschema:"title=Provider URL,description=Base URL override for the yahoo and binance providers" validate:"omitempty,url"`
	PolygonApiKey string                `yaml:"-" json:"-" validate:"required_if=Provider polygon"`
	StartDate     string                `yaml:"startDate" json:"startDate" jsonschema:"title=Start Date,description=First date requested (inclusive),format=date" validate:"required,datetime=2006-01-02"`
	EndDate       string                `yaml:"endDate" json:"endDate" jsonschema:"title=End Date,description=Last date requested (exclusive),format=date" validate:"required,datetime=2006-01-02"`
	OutputRoot    string                `yaml:"outputRoot" json:"outputRoot" jsonschema:"title=Output Root,description=Root directory of the LEAN data tree" validate:"required"`
	Pause         time.Duration         `yaml:"pause" json:"pause" jsonschema:"title=Pause,description=Delay after every instrument"`
	Parquet       bool                  `yaml:"parquet" json:"parquet" jsonschema:"title=Parquet,description=Also write a parquet copy of every instrument"`
	Groups        []Group               `yaml:"groups" json:"groups" jsonschema:"title=Groups" validate:"required,min=1,dive"`
}

// DefaultConfig returns the compiled-in configuration.
func DefaultConfig() Config {
	equities := []string{
		"SPY", "AAPL", "META", "NVDA", "TSM", "INTU", "BX", "TSLA", "PWR", "NUE",
		"ZM", "NIO", "BRKR", "AXON", "ODFL", "PINS", "EFX", "BLDR", "ENPH", "PLTR",
	}

	equitySymbols := make([]Symbol, 0, len(equities))
	for _, ticker := range equities {
		equitySymbols = append(equitySymbols, Symbol{Source: ticker, ID: strings.ToLower(ticker)})
	}

	return Config{
		Version:    "",
		Provider:   provider.ProviderYahoo,
		StartDate:  "2018-12-01",
		EndDate:    "2025-01-02",
		OutputRoot: "data",
		Pause:      time.Second,
		Parquet:    false,
		Groups: []Group{
			{
				AssetClass: AssetClassEquity,
				Market:     "usa",
				Symbols:    equitySymbols,
			},
			{
				AssetClass: AssetClassCrypto,
				Market:     "coinbase",
				Symbols: []Symbol{
					{Source: "BTC-USD", ID: "btcusd"},
					{Source: "ETH-USD", ID: "ethusd"},
				},
			},
			{
				AssetClass: AssetClassForex,
				Market:     "oanda",
				Symbols: []Symbol{
					{Source: "GBPUSD=X", ID: "gbpusd"},
					{Source: "EURUSD=X", ID: "eurusd"},
					{Source: "USDJPY=X", ID: "usdjpy"},
				},
			},
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Sections present in the
// file replace the defaults; absent ones are kept.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
	}

	if err := version.CheckConfigCompatibility(version.Version, config.Version); err != nil {
		code := errors.ErrCodeVersionMismatch
		if errors.Is(err, version.ErrInvalidVersion) {
			code = errors.ErrCodeInvalidVersion
		}

		return Config{}, errors.Wrapf(code, err, "config %s is not compatible with %s", path, version.Version)
	}

	return config, nil
}

// Validate checks the struct tags, the date range and that no two instruments
// share an archive path.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	start, end, err := c.DateRange()
	if err != nil {
		return err
	}

	if !end.After(start) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "endDate %s must be after startDate %s", c.EndDate, c.StartDate)
	}

	if c.Pause < 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "pause must not be negative, got %s", c.Pause)
	}

	seen := make(map[string]string)

	for _, inst := range c.Instruments() {
		if inst.OutputID == "" {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "empty output id for %s", inst.SourceID)
		}

		path := inst.ArchivePath(c.OutputRoot)
		if other, ok := seen[path]; ok {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s and %s both write %s", other, inst.SourceID, path)
		}

		seen[path] = inst.SourceID
	}

	return nil
}

// DateRange parses the configured dates as midnight UTC.
func (c Config) DateRange() (start time.Time, end time.Time, err error) {
	start, err = time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid startDate %q", c.StartDate)
	}

	end, err = time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid endDate %q", c.EndDate)
	}

	return start, end, nil
}

// Instruments flattens all groups in order.
func (c Config) Instruments() []Instrument {
	var instruments []Instrument

	for _, group := range c.Groups {
		instruments = append(instruments, group.Instruments()...)
	}

	return instruments
}

// IsQuote reports whether the group writes the quote layout.
func (g Group) IsQuote() bool {
	if g.Quote != nil {
		return *g.Quote
	}

	return g.AssetClass == AssetClassForex
}

// Instruments resolves the group's symbols in order.
func (g Group) Instruments() []Instrument {
	instruments := make([]Instrument, 0, len(g.Symbols))

	for _, symbol := range g.Symbols {
		outputID := symbol.ID
		if outputID == "" {
			outputID = DefaultOutputID(g.AssetClass, symbol.Source)
		}

		instruments = append(instruments, Instrument{
			SourceID:   symbol.Source,
			OutputID:   outputID,
			AssetClass: g.AssetClass,
			Market:     g.Market,
			Quote:      g.IsQuote(),
		})
	}

	return instruments
}

// DefaultOutputID derives an archive identifier from a provider symbol.
// Equities are lower-cased; crypto and forex pairs also lose the dash and the =X suffix.
func DefaultOutputID(assetClass AssetClass, source string) string {
	id := strings.ToLower(source)
	if assetClass == AssetClassEquity {
		return id
	}

	id = strings.TrimSuffix(id, "=x")

	return strings.ReplaceAll(id, "-", "")
}

// OutputDir returns {root}/{asset_class}/{market}/daily.
func (i Instrument) OutputDir(root string) string {
	return filepath.Join(root, string(i.AssetClass), i.Market, "daily")
}

// ArchivePath returns the path of the instrument's zip archive under root.
func (i Instrument) ArchivePath(root string) string {
	return writer.ArchivePath(i.OutputDir(root), i.OutputID, i.Quote)
}

// ParquetPath returns the path of the optional parquet copy under root.
func (i Instrument) ParquetPath(root string) string {
	return filepath.Join(i.OutputDir(root), i.OutputID+".parquet")
}

func (i Instrument) String() string {
	return fmt.Sprintf("%s (%s/%s/%s)", i.SourceID, i.AssetClass, i.Market, i.OutputID)
}

package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	lderrors "github.com/rxtech-lab/argo-lean-data/pkg/errors"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/provider"
)

type ConfigTestSuite struct {
	suite.Suite
	tempDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tempDir, "leandata.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *ConfigTestSuite) TestDefaultConfig() {
	config := DefaultConfig()

	suite.NoError(config.Validate())
	suite.Equal(provider.ProviderYahoo, config.Provider)
	suite.Equal("data", config.OutputRoot)
	suite.Equal(time.Second, config.Pause)
	suite.False(config.Parquet)

	start, end, err := config.DateRange()
	suite.Require().NoError(err)
	suite.Equal(time.Date(2018, 12, 1, 0, 0, 0, 0, time.UTC), start)
	suite.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), end)

	suite.Require().Len(config.Groups, 3)
	suite.Equal(AssetClassEquity, config.Groups[0].AssetClass)
	suite.Equal("usa", config.Groups[0].Market)
	suite.Len(config.Groups[0].Symbols, 20)
	suite.Equal(AssetClassCrypto, config.Groups[1].AssetClass)
	suite.Equal("coinbase", config.Groups[1].Market)
	suite.Equal(AssetClassForex, config.Groups[2].AssetClass)
	suite.Equal("oanda", config.Groups[2].Market)

	instruments := config.Instruments()
	suite.Len(instruments, 25)
	suite.Equal(Instrument{SourceID: "SPY", OutputID: "spy", AssetClass: AssetClassEquity, Market: "usa", Quote: false}, instruments[0])
	suite.Equal(Instrument{SourceID: "PLTR", OutputID: "pltr", AssetClass: AssetClassEquity, Market: "usa", Quote: false}, instruments[19])
	suite.Equal(Instrument{SourceID: "BTC-USD", OutputID: "btcusd", AssetClass: AssetClassCrypto, Market: "coinbase", Quote: false}, instruments[20])
	suite.Equal(Instrument{SourceID: "ETH-USD", OutputID: "ethusd", AssetClass: AssetClassCrypto, Market: "coinbase", Quote: false}, instruments[21])
	suite.Equal(Instrument{SourceID: "GBPUSD=X", OutputID: "gbpusd", AssetClass: AssetClassForex, Market: "oanda", Quote: true}, instruments[22])
	suite.Equal(Instrument{SourceID: "USDJPY=X", OutputID: "usdjpy", AssetClass: AssetClassForex, Market: "oanda", Quote: true}, instruments[24])
}

func (suite *ConfigTestSuite) TestInstrumentPaths() {
	equity := Instrument{SourceID: "AAPL", OutputID: "aapl", AssetClass: AssetClassEquity, Market: "usa"}
	forex := Instrument{SourceID: "EURUSD=X", OutputID: "eurusd", AssetClass: AssetClassForex, Market: "oanda", Quote: true}

	suite.Equal(filepath.Join("data", "equity", "usa", "daily"), equity.OutputDir("data"))
	suite.Equal(filepath.Join("data", "equity", "usa", "daily", "aapl_trade.zip"), equity.ArchivePath("data"))
	suite.Equal(filepath.Join("data", "forex", "oanda", "daily", "eurusd_quote.zip"), forex.ArchivePath("data"))
	suite.Equal(filepath.Join("data", "forex", "oanda", "daily", "eurusd.parquet"), forex.ParquetPath("data"))
}

func (suite *ConfigTestSuite) TestDefaultOutputID() {
	suite.Equal("brk-b", DefaultOutputID(AssetClassEquity, "BRK-B"))
	suite.Equal("aapl", DefaultOutputID(AssetClassEquity, "AAPL"))
	suite.Equal("btcusd", DefaultOutputID(AssetClassCrypto, "BTC-USD"))
	suite.Equal("eurusd", DefaultOutputID(AssetClassForex, "EURUSD=X"))
}

func (suite *ConfigTestSuite) TestGroupQuoteOverride() {
	off := false
	on := true

	forex := Group{AssetClass: AssetClassForex, Market: "oanda", Symbols: []Symbol{{Source: "EURUSD=X"}}}
	suite.True(forex.IsQuote())

	forex.Quote = &off
	suite.False(forex.IsQuote())
	suite.False(forex.Instruments()[0].Quote)

	equity := Group{AssetClass: AssetClassEquity, Market: "usa", Quote: &on, Symbols: []Symbol{{Source: "SPY"}}}
	suite.True(equity.Instruments()[0].Quote)
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	path := suite.writeConfig(`
version: v1.0.0
provider: binance
startDate: "2024-01-01"
endDate: "2024-02-01"
pause: 250ms
parquet: true
groups:
  - assetClass: crypto
    market: binance
    symbols:
      - source: BTC-USD
      - source: ETH-USD
        id: eth
`)

	config, err := LoadConfig(path)
	suite.Require().NoError(err)
	suite.NoError(config.Validate())

	suite.Equal(provider.ProviderBinance, config.Provider)
	suite.Equal("2024-01-01", config.StartDate)
	suite.Equal("2024-02-01", config.EndDate)
	suite.Equal(250*time.Millisecond, config.Pause)
	suite.True(config.Parquet)
	// sections absent from the file keep their defaults
	suite.Equal("data", config.OutputRoot)

	instruments := config.Instruments()
	suite.Require().Len(instruments, 2)
	suite.Equal("btcusd", instruments[0].OutputID)
	suite.Equal("eth", instruments[1].OutputID)
	suite.Equal("binance", instruments[1].Market)
}

func (suite *ConfigTestSuite) TestLoadConfigKeepsDefaultGroups() {
	path := suite.writeConfig(`outputRoot: /tmp/lean`)

	config, err := LoadConfig(path)
	suite.Require().NoError(err)
	suite.Equal("/tmp/lean", config.OutputRoot)
	suite.Len(config.Instruments(), 25)
}

func (suite *ConfigTestSuite) TestLoadConfigErrors() {
	_, err := LoadConfig(filepath.Join(suite.tempDir, "missing.yaml"))
	suite.True(lderrors.HasCode(err, lderrors.ErrCodeInvalidConfiguration))

	_, err = LoadConfig(suite.writeConfig("groups: [unclosed"))
	suite.True(lderrors.HasCode(err, lderrors.ErrCodeInvalidConfiguration))

	_, err = LoadConfig(suite.writeConfig("version: v2.0.0"))
	suite.True(lderrors.HasCode(err, lderrors.ErrCodeVersionMismatch))

	_, err = LoadConfig(suite.writeConfig("version: v1.99.0"))
	suite.True(lderrors.HasCode(err, lderrors.ErrCodeVersionMismatch))

	_, err = LoadConfig(suite.writeConfig("version: latest"))
	suite.True(lderrors.HasCode(err, lderrors.ErrCodeInvalidVersion))
}

func (suite *ConfigTestSuite) TestValidate() {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.Provider = "iex" },
		},
		{
			name:   "polygon without key",
			mutate: func(c *Config) { c.Provider = provider.ProviderPolygon },
		},
		{
			name:   "malformed start date",
			mutate: func(c *Config) { c.StartDate = "2018/12/01" },
		},
		{
			name:   "end before start",
			mutate: func(c *Config) { c.EndDate = "2018-01-01" },
		},
		{
			name:   "empty range",
			mutate: func(c *Config) { c.EndDate = c.StartDate },
		},
		{
			name:   "negative pause",
			mutate: func(c *Config) { c.Pause = -time.Second },
		},
		{
			name:   "missing output root",
			mutate: func(c *Config) { c.OutputRoot = "" },
		},
		{
			name:   "no groups",
			mutate: func(c *Config) { c.Groups = nil },
		},
		{
			name:   "unknown asset class",
			mutate: func(c *Config) { c.Groups[0].AssetClass = "bond" },
		},
		{
			name:   "group without symbols",
			mutate: func(c *Config) { c.Groups[1].Symbols = []Symbol{} },
		},
		{
			name: "two symbols writing one archive",
			mutate: func(c *Config) {
				c.Groups[1].Symbols = append(c.Groups[1].Symbols, Symbol{Source: "BTC-USDT", ID: "btcusd"})
			},
		},
		{
			name:   "malformed provider url",
			mutate: func(c *Config) { c.ProviderURL = "not a url" },
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			config := DefaultConfig()
			tc.mutate(&config)

			err := config.Validate()
			suite.Error(err)
			suite.True(lderrors.HasCode(err, lderrors.ErrCodeInvalidConfiguration), err.Error())
		})
	}
}

func (suite *ConfigTestSuite) TestValidatePolygonWithKey() {
	config := DefaultConfig()
	config.Provider = provider.ProviderPolygon
	config.PolygonApiKey = "key"

	suite.NoError(config.Validate())
}

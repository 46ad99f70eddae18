package writer

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/mocks"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

var leanTimePattern = regexp.MustCompile(`^\d{8} 00:00$`)

type LeanWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestLeanWriterSuite(t *testing.T) {
	suite.Run(t, new(LeanWriterTestSuite))
}

func (suite *LeanWriterTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "lean-writer-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *LeanWriterTestSuite) TearDownTest() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func sampleBar() types.Bar {
	return types.Bar{
		Time:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:   100,
		High:   105,
		Low:    99,
		Close:  102,
		Volume: 1000,
	}
}

// readArchive returns the member names and the raw content of the first member.
func (suite *LeanWriterTestSuite) readArchive(path string) ([]string, []byte) {
	reader, err := zip.OpenReader(path)
	suite.Require().NoError(err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}

	suite.Require().NotEmpty(reader.File)
	suite.Equal(zip.Deflate, reader.File[0].Method)

	rc, err := reader.File[0].Open()
	suite.Require().NoError(err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	suite.Require().NoError(err)

	return names, content
}

func (suite *LeanWriterTestSuite) readRecords(content []byte) [][]string {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	suite.Require().NoError(err)

	return records
}

func (suite *LeanWriterTestSuite) TestTradeScenario() {
	outputDir := filepath.Join(suite.tempDir, "equity", "usa", "daily")

	path, err := Package([]types.Bar{sampleBar()}, "aapl", outputDir, false)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(outputDir, "aapl_trade.zip"), path)

	names, content := suite.readArchive(path)
	suite.Equal([]string{"aapl_trade.csv"}, names)
	suite.Equal("20240102 00:00,100,105,99,102,1000\n", string(content))
}

func (suite *LeanWriterTestSuite) TestQuoteScenario() {
	outputDir := filepath.Join(suite.tempDir, "forex", "oanda", "daily")

	path, err := Package([]types.Bar{sampleBar()}, "eurusd", outputDir, true)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(outputDir, "eurusd_quote.zip"), path)

	names, content := suite.readArchive(path)
	suite.Equal([]string{"eurusd_quote.csv"}, names)
	suite.Equal("20240102 00:00,100,105,99,102,100,105,99,102\n", string(content))
}

func (suite *LeanWriterTestSuite) TestRoundTripGeneratedBars() {
	bars := mocks.GenerateDailyBars("BTC-USD", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 250)

	for _, quote := range []bool{false, true} {
		path, err := Package(bars, "btcusd", suite.tempDir, quote)
		suite.Require().NoError(err)

		_, content := suite.readArchive(path)
		records := suite.readRecords(content)
		suite.Len(records, len(bars))

		for i, record := range records {
			suite.Regexp(leanTimePattern, record[0])

			if quote {
				suite.Len(record, 9)
				// bid side equals ask side equals OHLC
				suite.Equal(record[1:5], record[5:9])
				suite.Equal(FormatRecord(bars[i], false)[1:5], record[1:5])
			} else {
				suite.Len(record, 6)
			}
		}

		// no header: the first field is always a timestamp
		suite.NotEqual("time", records[0][0])
	}
}

func (suite *LeanWriterTestSuite) TestAdjCloseIsNeverWritten() {
	bar := sampleBar()
	bar.AdjClose = optional.Some(77.7)

	suite.Equal([]string{"20240102 00:00", "100", "105", "99", "102", "1000"}, FormatRecord(bar, false))
	suite.NotContains(FormatRecord(bar, true), "77.7")
}

func (suite *LeanWriterTestSuite) TestFormatRecordDecimals() {
	bar := types.Bar{
		Time:   time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC),
		Open:   1.13245,
		High:   1.1357,
		Low:    0.1,
		Close:  1.13,
		Volume: 0,
	}

	suite.Equal([]string{"20190315 00:00", "1.13245", "1.1357", "0.1", "1.13", "0"}, FormatRecord(bar, false))
}

func (suite *LeanWriterTestSuite) TestExistingDirectory() {
	outputDir := filepath.Join(suite.tempDir, "crypto", "coinbase", "daily")
	suite.Require().NoError(os.MkdirAll(outputDir, 0755))

	_, err := Package([]types.Bar{sampleBar()}, "ethusd", outputDir, false)
	suite.NoError(err)

	// running twice overwrites the archive
	_, err = Package([]types.Bar{sampleBar(), sampleBar()}, "ethusd", outputDir, false)
	suite.NoError(err)

	_, content := suite.readArchive(filepath.Join(outputDir, "ethusd_trade.zip"))
	suite.Len(suite.readRecords(content), 2)
}

func (suite *LeanWriterTestSuite) TestTransientCSVRemoved() {
	_, err := Package([]types.Bar{sampleBar()}, "spy", suite.tempDir, false)
	suite.Require().NoError(err)

	entries, err := os.ReadDir(suite.tempDir)
	suite.Require().NoError(err)
	suite.Len(entries, 1)
	suite.Equal("spy_trade.zip", entries[0].Name())
}

func (suite *LeanWriterTestSuite) TestUncreatableDirectory() {
	blocker := filepath.Join(suite.tempDir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))

	outputDir := filepath.Join(blocker, "daily")
	_, err := Package([]types.Bar{sampleBar()}, "aapl", outputDir, false)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePackagingFailed))
	suite.Contains(err.Error(), outputDir)
}

func (suite *LeanWriterTestSuite) TestArchiveWriteFailureLeavesNoCSV() {
	// a directory squatting on the archive path makes the zip create fail
	suite.Require().NoError(os.MkdirAll(filepath.Join(suite.tempDir, "aapl_trade.zip"), 0755))

	_, err := Package([]types.Bar{sampleBar()}, "aapl", suite.tempDir, false)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePackagingFailed))
	suite.Contains(err.Error(), filepath.Join(suite.tempDir, "aapl_trade.zip"))

	_, statErr := os.Stat(filepath.Join(suite.tempDir, "aapl_trade.csv"))
	suite.True(os.IsNotExist(statErr))
}

func (suite *LeanWriterTestSuite) TestPackageRejectsEmptyInput() {
	_, err := Package(nil, "aapl", suite.tempDir, false)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *LeanWriterTestSuite) TestWriteBeforeInitialize() {
	writer := NewLeanWriter("aapl", suite.tempDir, false)

	err := writer.Write(sampleBar())
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	_, err = writer.Finalize()
	suite.Error(err)

	suite.NoError(writer.Close())
}

func (suite *LeanWriterTestSuite) TestNaming() {
	suite.Equal("trade", Suffix(false))
	suite.Equal("quote", Suffix(true))
	suite.Equal("usdjpy_quote", FileName("usdjpy", true))
	suite.Equal(filepath.Join("data", "equity", "usa", "daily", "nvda_trade.zip"),
		ArchivePath(filepath.Join("data", "equity", "usa", "daily"), "nvda", false))
	suite.Len(TradeColumns, 6)
	suite.Len(QuoteColumns, 9)
}

package writer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

const (
	// TimeLayout is the LEAN daily timestamp layout.
	TimeLayout = "20060102 00:00"

	SuffixTrade = "trade"
	SuffixQuote = "quote"
)

// TradeColumns is the field order of a trade record.
var TradeColumns = []string{"time", "open", "high", "low", "close", "volume"}

// QuoteColumns is the field order of a quote record.
var QuoteColumns = []string{
	"time",
	"bidopen", "bidhigh", "bidlow", "bidclose",
	"askopen", "askhigh", "asklow", "askclose",
}

// Suffix returns the archive suffix for the schema.
func Suffix(quote bool) string {
	if quote {
		return SuffixQuote
	}

	return SuffixTrade
}

// FileName returns the base name shared by the csv member and the archive, without extension.
func FileName(outputID string, quote bool) string {
	return fmt.Sprintf("%s_%s", outputID, Suffix(quote))
}

// ArchivePath returns the archive location for an instrument inside outputDir.
func ArchivePath(outputDir, outputID string, quote bool) string {
	return filepath.Join(outputDir, FileName(outputID, quote)+".zip")
}

// FormatRecord projects a bar onto the trade or quote schema.
// Quote records carry the same OHLC observation on both the bid and the ask side.
func FormatRecord(bar types.Bar, quote bool) []string {
	ts := bar.Time.Format(TimeLayout)
	open := formatNumber(bar.Open)
	high := formatNumber(bar.High)
	low := formatNumber(bar.Low)
	closePrice := formatNumber(bar.Close)

	if quote {
		return []string{ts, open, high, low, closePrice, open, high, low, closePrice}
	}

	return []string{ts, open, high, low, closePrice, formatNumber(bar.Volume)}
}

func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// LeanWriter writes bars as a headerless csv and packs it into a single-member zip archive.
type LeanWriter struct {
	outputID  string
	outputDir string
	quote     bool

	csvPath string
	file    *os.File
	buf     *bufio.Writer
	csv     *csv.Writer
}

// NewLeanWriter creates a writer for {outputDir}/{outputID}_{trade|quote}.zip.
func NewLeanWriter(outputID string, outputDir string, quote bool) MarketDataWriter {
	return &LeanWriter{
		outputID:  outputID,
		outputDir: outputDir,
		quote:     quote,
		csvPath:   filepath.Join(outputDir, FileName(outputID, quote)+".csv"),
	}
}

// Initialize creates the output directory and the transient csv file.
func (w *LeanWriter) Initialize() error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to create output directory %s", w.outputDir)
	}

	file, err := os.Create(w.csvPath)
	if err != nil {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to create %s", w.csvPath)
	}

	w.file = file
	w.buf = bufio.NewWriter(file)
	w.csv = csv.NewWriter(w.buf)

	return nil
}

// Write appends one record to the transient csv.
func (w *LeanWriter) Write(bar types.Bar) error {
	if w.csv == nil {
		return errors.New(errors.ErrCodePackagingFailed, "writer not initialized")
	}

	if err := w.csv.Write(FormatRecord(bar, w.quote)); err != nil {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to write %s", w.csvPath)
	}

	return nil
}

// Finalize closes the csv, packs it into the archive and removes the transient file.
func (w *LeanWriter) Finalize() (string, error) {
	if w.file == nil {
		return "", errors.New(errors.ErrCodePackagingFailed, "writer not initialized")
	}

	if err := w.closeCSV(); err != nil {
		return "", err
	}

	archivePath := w.GetOutputPath()
	if err := zipFile(w.csvPath, archivePath); err != nil {
		os.Remove(archivePath)

		return "", errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to create archive %s", archivePath)
	}

	if err := os.Remove(w.csvPath); err != nil {
		return "", errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to remove %s", w.csvPath)
	}

	return archivePath, nil
}

// Close releases the csv handle and removes a leftover transient file. It is safe to call twice.
func (w *LeanWriter) Close() error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	w.buf = nil
	w.csv = nil

	if err := os.Remove(w.csvPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to remove %s", w.csvPath)
	}

	return nil
}

// GetOutputPath returns the archive path.
func (w *LeanWriter) GetOutputPath() string {
	return ArchivePath(w.outputDir, w.outputID, w.quote)
}

func (w *LeanWriter) closeCSV() error {
	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to flush %s", w.csvPath)
	}

	if err := w.buf.Flush(); err != nil {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to flush %s", w.csvPath)
	}

	err := w.file.Close()
	w.file = nil
	w.buf = nil
	w.csv = nil

	if err != nil {
		return errors.Wrapf(errors.ErrCodePackagingFailed, err, "failed to close %s", w.csvPath)
	}

	return nil
}

// zipFile stores src as a single deflated member named after its base name.
func zipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(out)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		out.Close()

		return err
	}

	header.Name = filepath.Base(src)
	header.Method = zip.Deflate

	member, err := zw.CreateHeader(header)
	if err != nil {
		out.Close()

		return err
	}

	if _, err := io.Copy(member, in); err != nil {
		out.Close()

		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()

		return err
	}

	return out.Close()
}

// Package writes bars as a LEAN archive at {outputDir}/{outputID}_{trade|quote}.zip
// and returns its path. Callers must not pass an empty slice.
func Package(bars []types.Bar, outputID string, outputDir string, quote bool) (string, error) {
	if len(bars) == 0 {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "no bars to package for %s", outputID)
	}

	return WriteAll(NewLeanWriter(outputID, outputDir, quote), bars)
}

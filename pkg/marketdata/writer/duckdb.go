package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-lean-data/internal/types"
	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
)

// DuckDBWriter mirrors raw daily bars into a Parquet file through an in-memory DuckDB table.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	symbol     string
	outputPath string // Parquet file written by Finalize
	logger     *zap.Logger
}

// NewDuckDBWriter creates a new DuckDBWriter for symbol.
// outputPath specifies the Parquet file that Finalize exports to.
func NewDuckDBWriter(outputPath string, symbol string, logger *zap.Logger) MarketDataWriter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DuckDBWriter{
		symbol:     symbol,
		outputPath: outputPath,
		logger:     logger,
	}
}

// Initialize opens an in-memory database, creates the bars table,
// begins a transaction, and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			adj_close DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to create table: %w", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	insertSQL, _, err := sq.Insert("market_data").
		Columns("id", "time", "symbol", "open", "high", "low", "close", "volume", "adj_close").
		Values(nil, nil, nil, nil, nil, nil, nil, nil, nil).
		ToSql()
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to build insert statement: %w", err)
	}

	w.stmt, err = w.tx.Prepare(insertSQL)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	return nil
}

// Write persists a single bar using the prepared statement within the transaction.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return fmt.Errorf("writer not initialized or statement is nil")
	}

	var adjClose sql.NullFloat64
	if bar.AdjClose.IsSome() {
		adjClose = sql.NullFloat64{Float64: bar.AdjClose.Unwrap(), Valid: true}
	}

	_, err := w.stmt.Exec(
		uuid.New().String(),
		bar.Time,
		w.symbol,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
		adjClose,
	)
	if err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the data to a Parquet file.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", fmt.Errorf("writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create directory for %s", w.outputPath)
	}

	_, err = w.db.Exec(fmt.Sprintf(`COPY market_data TO '%s' (FORMAT PARQUET)`, quoteLiteral(w.outputPath)))
	if err != nil {
		return "", fmt.Errorf("failed to export to Parquet: %w", err)
	}

	w.logger.Debug("exported parquet mirror", zap.String("symbol", w.symbol), zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close cleans up resources used by the writer, including the statement,
// any open transaction and the database connection.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	// Finalize was not called or failed before commit
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// quoteLiteral escapes s for use inside a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

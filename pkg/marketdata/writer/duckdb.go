package writer

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// DuckDBWriter implements PriceWriter by exporting an in-memory DuckDB table to Parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string // Final Parquet file
	tempPath   string // Parquet file written by COPY before the rename
}

// NewDuckDBWriter creates a new DuckDBWriter.
// outputPath specifies where the final Parquet file will be saved.
func NewDuckDBWriter(outputPath string) PriceWriter {
	return &DuckDBWriter{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		outputPath: outputPath,
		tempPath:   "",
	}
}

// Initialize opens an in-memory database, creates the prices table,
// begins a transaction, and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.tempPath, err = tempSibling(w.outputPath)
	if err != nil {
		return err
	}

	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS prices (
			date DATE,
			open DOUBLE,
			close DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`INSERT INTO prices (date, open, close) VALUES (?, ?, ?)`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx, w.db = nil, nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts a single observation within the open transaction.
func (w *DuckDBWriter) Write(obs types.PriceObservation) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or statement is nil")
	}

	_, err := w.stmt.Exec(obs.Date, obs.Open.InexactFloat64(), obs.Close.InexactFloat64())
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to insert %s", obs.Date.Format(types.DateLayout))
	}

	return nil
}

// Finalize commits the transaction, exports the table ordered by date and moves the file into place.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or transaction is nil")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	escaped := strings.ReplaceAll(w.tempPath, "'", "''")

	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT date, open, close FROM prices ORDER BY date) TO '%s' (FORMAT PARQUET)`, escaped))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to Parquet", err)
	}

	if err := os.Chmod(w.tempPath, 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to set parquet permissions", err)
	}

	if err := os.Rename(w.tempPath, w.outputPath); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to move parquet to %s", w.outputPath)
	}

	w.tempPath = ""

	return w.outputPath, nil
}

// Close closes the statement and the database, rolls back an unfinished transaction
// and removes the temporary file if Finalize did not complete.
func (w *DuckDBWriter) Close() error {
	var closeErrors []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close statement: %v", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to rollback transaction: %v", err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close db connection: %v", err))
		}

		w.db = nil
	}

	if w.tempPath != "" {
		if err := os.Remove(w.tempPath); err != nil && !os.IsNotExist(err) {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to remove temporary file: %v", err))
		}

		w.tempPath = ""
	}

	if len(closeErrors) > 0 {
		return errors.Newf(errors.ErrCodeMarketDataWriteFailed, "errors occurred during close: %s", strings.Join(closeErrors, "; "))
	}

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

package writer

import (
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// Format selects the on-disk representation of a price series.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// PriceWriter defines the interface for writing a price series to a flat file.
// Nothing is visible at the output path until Finalize succeeds.
type PriceWriter interface {
	// Initialize sets up the writer, creating the parent directory and a temporary file.
	Initialize() error
	// Write buffers a single observation.
	Write(obs types.PriceObservation) error
	// Finalize writes the buffered rows and moves them to the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer and removes leftover temporary files.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// New creates a writer for the given format.
func New(format Format, outputPath string) (PriceWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(outputPath), nil
	case FormatParquet:
		return NewDuckDBWriter(outputPath), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidWriter, "unsupported writer format: %s", format)
	}
}

// WriteSeries runs the full writer lifecycle for a series and returns the final path.
func WriteSeries(w PriceWriter, series types.PriceSeries) (outputPath string, err error) {
	if err = w.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", cerr)
		}
	}()

	for _, obs := range series.Observations {
		if err = w.Write(obs); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}

// tempSibling creates an empty temporary file next to outputPath so the final rename stays on one filesystem.
func tempSibling(outputPath string) (string, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create directory %s", dir)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create temporary file in %s", dir)
	}

	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close temporary file", err)
	}

	return name, nil
}

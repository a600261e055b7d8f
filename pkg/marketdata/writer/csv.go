package writer

import (
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

type csvDate time.Time

func (d csvDate) MarshalCSV() (string, error) {
	return time.Time(d).Format(types.DateLayout), nil
}

func (d *csvDate) UnmarshalCSV(s string) error {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return err
	}

	*d = csvDate(t)

	return nil
}

type csvPrice decimal.Decimal

func (p csvPrice) MarshalCSV() (string, error) {
	return decimal.Decimal(p).String(), nil
}

func (p *csvPrice) UnmarshalCSV(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}

	*p = csvPrice(v)

	return nil
}

// csvRow is the on-disk shape of one observation: date first, then open and close.
type csvRow struct {
	Date  csvDate  `csv:"Date"`
	Open  csvPrice `csv:"Open"`
	Close csvPrice `csv:"Close"`
}

// CSVWriter writes a price series as comma-separated rows with a Date,Open,Close header.
type CSVWriter struct {
	outputPath string
	tempPath   string
	rows       []*csvRow
}

// NewCSVWriter creates a new CSVWriter targeting outputPath.
func NewCSVWriter(outputPath string) PriceWriter {
	return &CSVWriter{
		outputPath: outputPath,
		tempPath:   "",
		rows:       nil,
	}
}

// Initialize creates the destination directory and a temporary file beside the output.
func (w *CSVWriter) Initialize() error {
	tempPath, err := tempSibling(w.outputPath)
	if err != nil {
		return err
	}

	w.tempPath = tempPath
	w.rows = w.rows[:0]

	return nil
}

// Write buffers a single observation.
func (w *CSVWriter) Write(obs types.PriceObservation) error {
	if w.tempPath == "" {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	w.rows = append(w.rows, &csvRow{
		Date:  csvDate(obs.Date),
		Open:  csvPrice(obs.Open),
		Close: csvPrice(obs.Close),
	})

	return nil
}

// Finalize marshals the rows into the temporary file and renames it over the output path.
func (w *CSVWriter) Finalize() (string, error) {
	if w.tempPath == "" {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	f, err := os.OpenFile(w.tempPath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open temporary file", err)
	}

	if err := gocsv.Marshal(&w.rows, f); err != nil {
		f.Close()

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to marshal csv", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to sync csv", err)
	}

	if err := f.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close csv", err)
	}

	// os.CreateTemp makes the file 0600
	if err := os.Chmod(w.tempPath, 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to set csv permissions", err)
	}

	if err := os.Rename(w.tempPath, w.outputPath); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to move csv to %s", w.outputPath)
	}

	w.tempPath = ""

	return w.outputPath, nil
}

// Close removes the temporary file when Finalize did not run to completion.
func (w *CSVWriter) Close() error {
	w.rows = nil

	if w.tempPath == "" {
		return nil
	}

	path := w.tempPath
	w.tempPath = ""

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to remove temporary file", err)
	}

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}

// ReadCSV loads a series previously written by CSVWriter.
func ReadCSV(path string, symbol string) (types.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", path)
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
	}

	series := types.PriceSeries{
		Symbol:       symbol,
		Observations: make([]types.PriceObservation, 0, len(rows)),
	}

	for _, r := range rows {
		series.Observations = append(series.Observations, types.PriceObservation{
			Date:  time.Time(r.Date),
			Open:  decimal.Decimal(r.Open),
			Close: decimal.Decimal(r.Close),
		})
	}

	if err := series.CheckOrder(); err != nil {
		return types.PriceSeries{}, err
	}

	return series, nil
}

package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderYahoo   = provider.ProviderYahoo
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
)

// WriterType defines the output file format.
type WriterType = writer.Format

const (
	WriterCSV     = writer.FormatCSV
	WriterParquet = writer.FormatParquet
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType  `validate:"required,oneof=yahoo polygon binance"`
	WriterType    WriterType    `validate:"required,oneof=csv parquet"`
	PolygonApiKey string        `validate:"required_if=ProviderType polygon"`
	YahooBaseURL  string        `validate:"omitempty,url"`
	Timeout       time.Duration `validate:"gte=0"`
}

// DownloadParams holds the parameters for a single fetch-and-write run.
type DownloadParams struct {
	Ticker    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	// EndDate defaults to the time of the run.
	EndDate    optional.Option[time.Time]
	OutputPath string `validate:"required"`
}

// DownloadResult describes the file a Download produced.
type DownloadResult struct {
	OutputPath string
	Rows       int
	FirstDate  time.Time
	LastDate   time.Time
}

// Client is the market data client responsible for fetching a price series from a provider
// and storing it using a writer.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	log        *logger.Logger
	onProgress provider.OnDownloadProgress
	newWriter  func(format writer.Format, outputPath string) (writer.PriceWriter, error)
	now        func() time.Time
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, log *logger.Logger, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, provider.Config{
		PolygonApiKey: config.PolygonApiKey,
		YahooBaseURL:  config.YahooBaseURL,
		Timeout:       config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", config.ProviderType, err)
	}

	return newClient(marketProvider, config, log, onProgress), nil
}

func newClient(p provider.Provider, config ClientConfig, log *logger.Logger, onProgress provider.OnDownloadProgress) *Client {
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		provider:   p,
		config:     config,
		validate:   validator.New(),
		log:        log,
		onProgress: onProgress,
		newWriter:  writer.New,
		now:        time.Now,
	}
}

// Fetch retrieves the series for ticker between startDate and endDate (now when absent)
// and normalizes it to single-level Open and Close columns.
// Only trading days on or after startDate's date and before endDate are kept.
func (c *Client) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate optional.Option[time.Time]) (types.PriceSeries, error) {
	end := c.now()
	if endDate.IsSome() {
		end = endDate.Unwrap()
	}

	if !end.After(startDate) {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeInvalidDate, "end date %s must be after start date %s",
			end.Format(types.DateLayout), startDate.Format(types.DateLayout))
	}

	tbl, err := c.provider.Fetch(ctx, ticker, startDate, end, c.onProgress)
	if err != nil {
		return types.PriceSeries{}, fmt.Errorf("fetch failed: %w", err)
	}

	series, err := tbl.Normalize(ticker)
	if err != nil {
		return types.PriceSeries{}, fmt.Errorf("failed to normalize %s table: %w", c.provider.Name(), err)
	}

	// providers may return bars outside the window, e.g. Yahoo's padded start
	series = series.Between(types.TruncateToDate(startDate), end)

	if series.Len() == 0 {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeDataNotFound, "no open/close observations for %s", ticker)
	}

	if flagged := series.NegativePrices(); len(flagged) > 0 {
		c.log.Warn("Upstream returned negative prices",
			zap.String("ticker", ticker),
			zap.Int("count", len(flagged)),
			zap.Time("first", flagged[0].Date),
		)
	}

	return series, nil
}

// Download fetches the series described by params and writes it to params.OutputPath.
// On failure the output path is left untouched.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (DownloadResult, error) {
	if err := c.validate.Struct(params); err != nil {
		return DownloadResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	runID := uuid.NewString()
	log := c.log.With(
		zap.String("run_id", runID),
		zap.String("provider", string(c.provider.Name())),
		zap.String("ticker", params.Ticker),
	)

	log.Info("Starting download",
		zap.Time("start", params.StartDate),
		zap.String("output", params.OutputPath),
		zap.String("format", string(c.config.WriterType)),
	)

	series, err := c.Fetch(ctx, params.Ticker, params.StartDate, params.EndDate)
	if err != nil {
		log.Error("Download failed", zap.Error(err))

		return DownloadResult{}, err
	}

	marketWriter, err := c.newWriter(c.config.WriterType, params.OutputPath)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("failed to setup writer: %w", err)
	}

	outputPath, err := writer.WriteSeries(marketWriter, series)
	if err != nil {
		log.Error("Write failed", zap.Error(err))

		return DownloadResult{}, fmt.Errorf("failed to write %s: %w", params.OutputPath, err)
	}

	first, _ := series.First()
	last, _ := series.Last()

	log.Info("Download completed",
		zap.Int("rows", series.Len()),
		zap.String("first", first.Date.Format(types.DateLayout)),
		zap.String("last", last.Date.Format(types.DateLayout)),
		zap.String("path", outputPath),
	)

	return DownloadResult{
		OutputPath: outputPath,
		Rows:       series.Len(),
		FirstDate:  first.Date,
		LastDate:   last.Date,
	}, nil
}

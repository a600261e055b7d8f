package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/table"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// Name returns the provider type.
	Name() ProviderType
	// Fetch retrieves daily observations for the ticker from startDate through endDate.
	// The returned table is indexed by date and may carry (field, symbol) column labels.
	// The context can be used to cancel the request.
	// example:
	// Fetch(ctx, "^GSPC", time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), time.Now(), onProgress)
	Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (*table.Table, error)
}

// Config carries the settings a provider may need.
type Config struct {
	// PolygonApiKey authenticates against Polygon.io.
	PolygonApiKey string
	// YahooBaseURL overrides the Yahoo chart endpoint host.
	YahooBaseURL string
	// Timeout bounds each HTTP request of every provider. Zero means DefaultTimeout.
	Timeout time.Duration
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config Config) (Provider, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch providerType {
	case ProviderYahoo:
		return NewYahooClient(config.YahooBaseURL, timeout), nil
	case ProviderBinance:
		return NewBinanceClient(timeout)
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey, timeout)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// newHTTPClient returns an HTTP client bounded by timeout, or DefaultTimeout when it is not positive.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{Timeout: timeout}
}

func reportProgress(onProgress OnDownloadProgress, current, total float64, message string) {
	if onProgress != nil {
		onProgress(current, total, message)
	}
}

func checkRange(ticker string, startDate, endDate time.Time) error {
	if ticker == "" {
		return errors.New(errors.ErrCodeMissingParameter, "ticker is required")
	}

	if !endDate.After(startDate) {
		return errors.Newf(errors.ErrCodeInvalidDate, "end date %s must be after start date %s",
			endDate.Format(time.DateOnly), startDate.Format(time.DateOnly))
	}

	return nil
}

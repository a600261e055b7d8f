package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/table"
)

// PolygonAggsIterator is the subset of the Polygon aggregates iterator used by PolygonClient.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient abstracts the Polygon REST client for testing.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
}

// NewPolygonClient creates a Polygon client whose requests are bounded by timeout.
func NewPolygonClient(apiKey string, timeout time.Duration) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "apiKey is required")
	}

	hc := newHTTPClient(timeout)
	bound := hc.Timeout
	client := polygon.NewWithClient(apiKey, hc)
	// the SDK resets the timeout to 10s on construction
	client.HTTP.SetTimeout(bound)

	return NewPolygonClientWithAPI(&polygonAPIAdapter{client: client}), nil
}

// NewPolygonClientWithAPI creates a PolygonClient on top of the given API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{apiClient: apiClient}
}

func (c *PolygonClient) Name() ProviderType {
	return ProviderPolygon
}

// Fetch lists daily aggregates for ticker. Index tickers use Polygon's "I:" prefix, e.g. I:SPX.
func (c *PolygonClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (*table.Table, error) {
	if err := checkRange(ticker, startDate, endDate); err != nil {
		return nil, err
	}

	totalDays := endDate.Sub(startDate).Hours() / 24

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	var (
		index                      []time.Time
		opens, highs, lows, closes []float64
		volumes                    []float64
	)

	for iter.Next() {
		agg := iter.Item()
		ts := time.Time(agg.Timestamp).UTC()

		index = append(index, ts)
		opens = append(opens, agg.Open)
		highs = append(highs, agg.High)
		lows = append(lows, agg.Low)
		closes = append(closes, agg.Close)
		volumes = append(volumes, agg.Volume)

		if len(index)%250 == 0 {
			reportProgress(onProgress, ts.Sub(startDate).Hours()/24, totalDays, "Downloading "+ticker+" from Polygon")
		}
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "error iterating polygon aggregates for %s", ticker)
	}

	if len(index) == 0 {
		return nil, errors.Newf(errors.ErrCodeSymbolNotFound, "polygon: no aggregates for %s", ticker)
	}

	reportProgress(onProgress, totalDays, totalDays, "Downloaded "+ticker+" from Polygon")

	tbl := table.New(index)
	for _, col := range []struct {
		field  string
		values []float64
	}{
		{table.FieldOpen, opens},
		{table.FieldHigh, highs},
		{table.FieldLow, lows},
		{table.FieldClose, closes},
		{table.FieldVolume, volumes},
	} {
		if err := tbl.AddColumn(col.values, col.field); err != nil {
			return nil, err
		}
	}

	return tbl, nil
}

package provider

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/table"
)

const (
	// DefaultYahooBaseURL is the public Yahoo Finance chart host.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	yahooChartPath      = "/v8/finance/chart/{symbol}"
	// yahooStartPadding widens period1 because bars are stamped at exchange-local
	// midnight or open, which is the previous UTC day for exchanges east of UTC.
	yahooStartPadding = 24 * time.Hour
	yahooUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// yahooChart is the response structure of the v8 chart API.
// Missing values are JSON nulls, hence the pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooColumn struct {
	field  string
	values []*float64
}

// YahooClient fetches daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	http *resty.Client
}

// NewYahooClient creates a Yahoo client. An empty baseURL uses DefaultYahooBaseURL.
func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", yahooUserAgent).
		SetHeader("Accept", "application/json")

	return &YahooClient{http: client}
}

func (c *YahooClient) Name() ProviderType {
	return ProviderYahoo
}

// Fetch downloads the daily chart for ticker and returns it with (field, symbol) column labels.
// The request starts a day early, so the table may hold bars before startDate.
func (c *YahooClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (*table.Table, error) {
	if err := checkRange(ticker, startDate, endDate); err != nil {
		return nil, err
	}

	reportProgress(onProgress, 0, 1, "Downloading "+ticker+" from Yahoo")

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(startDate.Add(-yahooStartPadding).Unix(), 10),
			"period2":              strconv.FormatInt(endDate.Unix(), 10),
			"interval":             "1d",
			"events":               "history",
			"includeAdjustedClose": "true",
		}).
		Get(yahooChartPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "yahoo request for %s failed", ticker)
	}

	var chart yahooChart

	decodeErr := json.Unmarshal(resp.Body(), &chart)

	if chart.Chart.Error != nil {
		code := errors.ErrCodeMarketDataFetchFailed
		if chart.Chart.Error.Code == "Not Found" || resp.StatusCode() == http.StatusNotFound {
			code = errors.ErrCodeSymbolNotFound
		}

		return nil, errors.Newf(code, "yahoo: %s: %s", ticker, chart.Chart.Error.Description)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.Newf(errors.ErrCodeSymbolNotFound, "yahoo: %s not found", ticker)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "yahoo: status %d for %s", resp.StatusCode(), ticker)
	}

	if decodeErr != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "yahoo: failed to decode chart", decodeErr)
	}

	tbl, err := chartToTable(ticker, &chart)
	if err != nil {
		return nil, err
	}

	reportProgress(onProgress, 1, 1, "Downloaded "+ticker+" from Yahoo")

	return tbl, nil
}

func chartToTable(ticker string, chart *yahooChart) (*table.Table, error) {
	if len(chart.Chart.Result) == 0 {
		return nil, errors.Newf(errors.ErrCodeSymbolNotFound, "yahoo: no result for %s", ticker)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "yahoo: no data returned for %s", ticker)
	}

	symbol := result.Meta.Symbol
	if symbol == "" {
		symbol = ticker
	}

	n := len(result.Timestamp)
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	index := make([]time.Time, n)
	for i, ts := range result.Timestamp {
		// exchange-local wall clock, so the calendar date matches the trading day
		index[i] = time.Unix(ts, 0).UTC().Add(offset)
	}

	quote := result.Indicators.Quote[0]
	tbl := table.New(index)

	columns := []yahooColumn{
		{table.FieldOpen, quote.Open},
		{table.FieldHigh, quote.High},
		{table.FieldLow, quote.Low},
		{table.FieldClose, quote.Close},
	}

	if len(result.Indicators.AdjClose) > 0 {
		columns = append(columns, yahooColumn{table.FieldAdjClose, result.Indicators.AdjClose[0].AdjClose})
	}

	columns = append(columns, yahooColumn{table.FieldVolume, quote.Volume})

	for _, col := range columns {
		values, err := nullableValues(col.field, col.values, n)
		if err != nil {
			return nil, err
		}

		if err := tbl.AddColumn(values, col.field, symbol); err != nil {
			return nil, err
		}
	}

	return tbl, nil
}

// nullableValues converts a JSON array with nulls into floats with NaN.
func nullableValues(field string, raw []*float64, n int) ([]float64, error) {
	if len(raw) != n {
		return nil, errors.Newf(errors.ErrCodeShapeMismatch, "yahoo: %s has %d values for %d timestamps", field, len(raw), n)
	}

	values := make([]float64, n)
	for i, v := range raw {
		if v == nil {
			values[i] = math.NaN()

			continue
		}

		values[i] = *v
	}

	return values, nil
}

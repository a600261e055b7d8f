package provider

import (
	"context"
	stderrors "errors"
	"math"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/table"
)

const (
	binanceDailyInterval = "1d"
	binancePageSize      = 1000
	// binanceInvalidSymbol is the API error code for an unknown trading pair.
	binanceInvalidSymbol = -1121
)

// BinanceKlinesService abstracts the kline request builder.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient abstracts the Binance client for testing.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesAdapter{svc: a.client.NewKlinesService()}
}

type binanceKlinesAdapter struct {
	svc *binance.KlinesService
}

func (k *binanceKlinesAdapter) Symbol(symbol string) BinanceKlinesService {
	k.svc.Symbol(symbol)

	return k
}

func (k *binanceKlinesAdapter) Interval(interval string) BinanceKlinesService {
	k.svc.Interval(interval)

	return k
}

func (k *binanceKlinesAdapter) StartTime(startTime int64) BinanceKlinesService {
	k.svc.StartTime(startTime)

	return k
}

func (k *binanceKlinesAdapter) EndTime(endTime int64) BinanceKlinesService {
	k.svc.EndTime(endTime)

	return k
}

func (k *binanceKlinesAdapter) Limit(limit int) BinanceKlinesService {
	k.svc.Limit(limit)

	return k
}

func (k *binanceKlinesAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.svc.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
}

// NewBinanceClient creates a client for the public Binance market data API, which needs no credentials.
func NewBinanceClient(timeout time.Duration) (Provider, error) {
	client := binance.NewClient("", "")
	client.HTTPClient = newHTTPClient(timeout)

	return NewBinanceClientWithAPI(&binanceAPIAdapter{client: client}), nil
}

// NewBinanceClientWithAPI creates a BinanceClient on top of the given API client.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient) *BinanceClient {
	return &BinanceClient{apiClient: apiClient}
}

func (c *BinanceClient) Name() ProviderType {
	return ProviderBinance
}

// Fetch pages through daily klines for a trading pair such as BTCUSDT.
func (c *BinanceClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (*table.Table, error) {
	if err := checkRange(ticker, startDate, endDate); err != nil {
		return nil, err
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	current := startMillis

	var (
		index                      []time.Time
		opens, highs, lows, closes []float64
		volumes                    []float64
	)

	for current < endMillis {
		klines, err := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(binanceDailyInterval).
			StartTime(current).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			var apiErr *common.APIError
			if stderrors.As(err, &apiErr) && apiErr.Code == binanceInvalidSymbol {
				return nil, errors.Wrapf(errors.ErrCodeSymbolNotFound, err, "binance: unknown symbol %s", ticker)
			}

			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s", ticker)
		}

		for _, k := range klines {
			index = append(index, time.UnixMilli(k.OpenTime).UTC())
			opens = append(opens, parseKlineValue(k.Open))
			highs = append(highs, parseKlineValue(k.High))
			lows = append(lows, parseKlineValue(k.Low))
			closes = append(closes, parseKlineValue(k.Close))
			volumes = append(volumes, parseKlineValue(k.Volume))
		}

		reportProgress(onProgress, float64(current-startMillis), float64(endMillis-startMillis), "Downloading "+ticker+" klines from Binance")

		if len(klines) < binancePageSize {
			break
		}

		// close time + 1ms avoids fetching the last kline twice
		current = klines[len(klines)-1].CloseTime + 1
	}

	if len(index) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "binance: no klines for %s", ticker)
	}

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

// parseKlineValue parses a decimal string from the API, mapping garbage to NaN so the row is dropped later.
func parseKlineValue(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	return v
}

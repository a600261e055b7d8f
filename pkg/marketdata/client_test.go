package marketdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rxtech-lab/argo-quotes/internal/logger"
	"github.com/rxtech-lab/argo-quotes/mocks"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/table"
	"github.com/rxtech-lab/argo-quotes/pkg/marketdata/writer"
)

// ClientTestSuite is a test suite for the Client implementation
type ClientTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	tempDir      string
	now          time.Time
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

// SetupTest runs before each test
func (suite *ClientTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.mockProvider.EXPECT().Name().Return(ProviderYahoo).AnyTimes()
	suite.tempDir = suite.T().TempDir()
	suite.now = time.Date(1987, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *ClientTestSuite) client(format WriterType) *Client {
	c := newClient(suite.mockProvider, ClientConfig{
		ProviderType:  ProviderYahoo,
		WriterType:    format,
		PolygonApiKey: "",
		YahooBaseURL:  "",
		Timeout:       0,
	}, logger.NewNop(), nil)
	c.now = func() time.Time { return suite.now }

	return c
}

func (suite *ClientTestSuite) params(output string) DownloadParams {
	return DownloadParams{
		Ticker:     "^GSPC",
		StartDate:  time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    optional.None[time.Time](),
		OutputPath: output,
	}
}

func generated() *table.Table {
	return mocks.NewDataGenerator(42).Generate(mocks.DefaultConfig())
}

func (suite *ClientTestSuite) TestDownloadCSV() {
	output := filepath.Join(suite.tempDir, "prices.csv")
	start := time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), "^GSPC", start, suite.now, gomock.Any()).
		Return(generated(), nil).
		Times(1)

	result, err := suite.client(WriterCSV).Download(context.Background(), suite.params(output))
	suite.Require().NoError(err)
	suite.Equal(output, result.OutputPath)
	suite.Equal(500, result.Rows)
	suite.Equal(time.Date(1985, 1, 2, 0, 0, 0, 0, time.UTC), result.FirstDate)

	content, err := os.ReadFile(output)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Len(lines, 501)
	suite.Equal("Date,Open,Close", lines[0])
	suite.True(strings.HasPrefix(lines[1], "1985-01-02,167.2,"))

	// no symbol level survives flattening
	suite.NotContains(string(content), "^GSPC")
}

func (suite *ClientTestSuite) TestDownloadDeterministic() {
	first := filepath.Join(suite.tempDir, "first.csv")
	second := filepath.Join(suite.tempDir, "second.csv")

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), "^GSPC", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Time, time.Time, func(float64, float64, string)) (*table.Table, error) {
			return generated(), nil
		}).
		Times(2)

	c := suite.client(WriterCSV)
	_, err := c.Download(context.Background(), suite.params(first))
	suite.Require().NoError(err)
	_, err = c.Download(context.Background(), suite.params(second))
	suite.Require().NoError(err)

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	suite.Equal(a, b)
}

func (suite *ClientTestSuite) TestDownloadExplicitEndDate() {
	end := time.Date(1985, 2, 1, 0, 0, 0, 0, time.UTC)
	params := suite.params(filepath.Join(suite.tempDir, "prices.csv"))
	params.EndDate = optional.Some(end)

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), "^GSPC", params.StartDate, end, gomock.Any()).
		Return(generated(), nil)

	_, err := suite.client(WriterCSV).Download(context.Background(), params)
	suite.NoError(err)
}

func (suite *ClientTestSuite) TestDownloadUnknownSymbolLeavesOutputUntouched() {
	output := filepath.Join(suite.tempDir, "prices.csv")
	suite.Require().NoError(os.WriteFile(output, []byte("previous run"), 0644))

	params := suite.params(output)
	params.Ticker = "NOTAREALTICKER"

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), "NOTAREALTICKER", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeSymbolNotFound, "yahoo: NOTAREALTICKER: No data found"))

	_, err := suite.client(WriterCSV).Download(context.Background(), params)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSymbolNotFound))

	content, _ := os.ReadFile(output)
	suite.Equal("previous run", string(content))

	entries, _ := os.ReadDir(suite.tempDir)
	suite.Len(entries, 1)
}

func (suite *ClientTestSuite) TestDownloadUnknownSymbolCreatesNothing() {
	output := filepath.Join(suite.tempDir, "out", "prices.csv")

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeSymbolNotFound, "not found"))

	_, err := suite.client(WriterCSV).Download(context.Background(), suite.params(output))
	suite.Error(err)
	suite.NoDirExists(filepath.Dir(output))
}

func (suite *ClientTestSuite) TestDownloadShapeMismatch() {
	multi := generated()
	other := mocks.DefaultConfig()
	other.Symbol = "SPY"
	multi.Columns = append(multi.Columns, mocks.NewDataGenerator(1).Generate(other).Columns...)

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(multi, nil)

	output := filepath.Join(suite.tempDir, "prices.csv")
	_, err := suite.client(WriterCSV).Download(context.Background(), suite.params(output))
	suite.True(errors.HasCode(err, errors.ErrCodeShapeMismatch))
	suite.NoFileExists(output)
}

func (suite *ClientTestSuite) TestDownloadEmptySeries() {
	empty := table.New(nil)
	suite.Require().NoError(empty.AddColumn(nil, table.FieldOpen))
	suite.Require().NoError(empty.AddColumn(nil, table.FieldClose))

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(empty, nil)

	_, err := suite.client(WriterCSV).Download(context.Background(), suite.params(filepath.Join(suite.tempDir, "p.csv")))
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ClientTestSuite) TestDownloadWarnsOnNegativePrices() {
	index := []time.Time{
		time.Date(1985, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(1985, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	tbl := table.New(index)
	suite.Require().NoError(tbl.AddColumn([]float64{1, 2}, table.FieldOpen))
	suite.Require().NoError(tbl.AddColumn([]float64{1.25, -1.5}, table.FieldClose))

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(tbl, nil)

	core, logs := observer.New(zap.InfoLevel)
	c := newClient(suite.mockProvider, ClientConfig{
		ProviderType:  ProviderYahoo,
		WriterType:    WriterCSV,
		PolygonApiKey: "",
		YahooBaseURL:  "",
		Timeout:       0,
	}, &logger.Logger{Logger: zap.New(core)}, nil)
	c.now = func() time.Time { return suite.now }

	output := filepath.Join(suite.tempDir, "prices.csv")
	result, err := c.Download(context.Background(), suite.params(output))
	suite.Require().NoError(err)
	suite.Equal(2, result.Rows)

	warnings := logs.FilterMessage("Upstream returned negative prices")
	suite.Require().Equal(1, warnings.Len())
	suite.Equal(zap.WarnLevel, warnings.All()[0].Level)
	suite.Equal(int64(1), warnings.All()[0].ContextMap()["count"])
	suite.Equal("^GSPC", warnings.All()[0].ContextMap()["ticker"])

	content, err := os.ReadFile(output)
	suite.Require().NoError(err)
	suite.Contains(string(content), "1985-01-03,2,-1.5")
}

func (suite *ClientTestSuite) TestDownloadWriterFailure() {
	mockWriter := mocks.NewMockPriceWriter(suite.ctrl)
	writeErr := stderrors.New("disk full")

	gomock.InOrder(
		mockWriter.EXPECT().Initialize().Return(nil),
		mockWriter.EXPECT().Write(gomock.Any()).Return(errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "write", writeErr)),
		mockWriter.EXPECT().Close().Return(nil),
	)

	suite.mockProvider.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(generated(), nil)

	c := suite.client(WriterCSV)
	c.newWriter = func(writer.Format, string) (writer.PriceWriter, error) { return mockWriter, nil }

	_, err := c.Download(context.Background(), suite.params(filepath.Join(suite.tempDir, "p.csv")))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
	suite.True(errors.Is(err, writeErr))
}

func (suite *ClientTestSuite) TestDownloadInvalidParams() {
	testCases := []struct {
		name   string
		params DownloadParams
		code   errors.ErrorCode
	}{
		{
			name:   "missing ticker",
			params: DownloadParams{Ticker: "", StartDate: suite.now.AddDate(-1, 0, 0), EndDate: optional.None[time.Time](), OutputPath: "p.csv"},
			code:   errors.ErrCodeInvalidParameter,
		},
		{
			name:   "missing output",
			params: DownloadParams{Ticker: "^GSPC", StartDate: suite.now.AddDate(-1, 0, 0), EndDate: optional.None[time.Time](), OutputPath: ""},
			code:   errors.ErrCodeInvalidParameter,
		},
		{
			name:   "start in the future",
			params: DownloadParams{Ticker: "^GSPC", StartDate: suite.now.AddDate(1, 0, 0), EndDate: optional.None[time.Time](), OutputPath: "p.csv"},
			code:   errors.ErrCodeInvalidDate,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.client(WriterCSV).Download(context.Background(), tc.params)
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code))
		})
	}
}

func (suite *ClientTestSuite) TestNewClient() {
	client, err := NewClient(ClientConfig{
		ProviderType:  ProviderYahoo,
		WriterType:    WriterCSV,
		PolygonApiKey: "",
		YahooBaseURL:  "",
		Timeout:       0,
	}, nil, nil)
	suite.NoError(err)
	suite.NotNil(client)

	_, err = NewClient(ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterCSV,
		PolygonApiKey: "",
		YahooBaseURL:  "",
		Timeout:       0,
	}, nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	suite.Contains(err.Error(), "PolygonApiKey")

	_, err = NewClient(ClientConfig{
		ProviderType:  ProviderYahoo,
		WriterType:    "xlsx",
		PolygonApiKey: "",
		YahooBaseURL:  "",
		Timeout:       0,
	}, nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

// n225Chart holds two Nikkei sessions stamped at Tokyo midnight, which is 15:00 UTC of the previous day.
const n225Chart = `{"chart":{"result":[{"meta":{"symbol":"^N225","gmtoffset":32400},
"timestamp":[%s],
"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`

// chartServer serves n225 bars whose timestamps fall in [period1, period2), as Yahoo does.
func chartServer(t *testing.T) *httptest.Server {
	type bar struct {
		ts    int64
		price string
	}
	bars := []bar{
		{ts: 1704294000, price: "33288.29"}, // 2024-01-04 JST
		{ts: 1704380400, price: "33377.42"}, // 2024-01-05 JST
	}

	router := mux.NewRouter()
	router.HandleFunc("/v8/finance/chart/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		from, err := strconv.ParseInt(r.URL.Query().Get("period1"), 10, 64)
		if err != nil {
			http.Error(w, "bad period1", http.StatusBadRequest)
			return
		}
		to, err := strconv.ParseInt(r.URL.Query().Get("period2"), 10, 64)
		if err != nil {
			http.Error(w, "bad period2", http.StatusBadRequest)
			return
		}

		var stamps, prices, volumes []string
		for _, b := range bars {
			if b.ts >= from && b.ts < to {
				stamps = append(stamps, strconv.FormatInt(b.ts, 10))
				prices = append(prices, b.price)
				volumes = append(volumes, "0")
			}
		}

		p := strings.Join(prices, ",")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, n225Chart, strings.Join(stamps, ","), p, p, p, p, strings.Join(volumes, ","))
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server
}

func TestFetchSingleDayEastOfUTC(t *testing.T) {
	server := chartServer(t)

	config := DefaultFetchConfig()
	config.Ticker = "^N225"
	config.StartDate = "2024-01-04"
	config.EndDate = "2024-01-04"

	params, err := config.ToDownloadParams()
	require.NoError(t, err)

	client, err := NewClient(ClientConfig{
		ProviderType:  ProviderYahoo,
		WriterType:    WriterCSV,
		PolygonApiKey: "",
		YahooBaseURL:  server.URL,
		Timeout:       0,
	}, logger.NewNop(), nil)
	require.NoError(t, err)

	series, err := client.Fetch(context.Background(), params.Ticker, params.StartDate, params.EndDate)
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), series.Observations[0].Date)
	assert.Equal(t, "33288.29", series.Observations[0].Open.String())
}

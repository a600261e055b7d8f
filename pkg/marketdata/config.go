package marketdata

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-quotes/internal/types"
	"github.com/rxtech-lab/argo-quotes/internal/version"
	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// Defaults reproduce the original fixed run: the S&P 500 index since 1985 into prices.csv.
const (
	DefaultTicker    = "^GSPC"
	DefaultStartDate = "1985-01-01"
	DefaultOutput    = "prices.csv"
)

// PolygonApiKeyEnv names the environment variable holding the Polygon.io API key.
const PolygonApiKeyEnv = "POLYGON_API_KEY"

// FetchConfig is the file and flag representation of a fetch run.
type FetchConfig struct {
	Version       string `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Version of quotes the file was written for; major and minor must match"`
	Provider      string `yaml:"provider" json:"provider" jsonschema:"title=Provider,description=Market data provider,enum=yahoo,enum=polygon,enum=binance,default=yahoo" validate:"required,oneof=yahoo polygon binance"`
	Ticker        string `yaml:"ticker" json:"ticker" jsonschema:"title=Ticker,description=Symbol to download (e.g. ^GSPC or I:SPX or BTCUSDT),default=^GSPC,required" validate:"required"`
	StartDate     string `yaml:"startDate" json:"startDate" jsonschema:"title=Start Date,description=First calendar date to request,format=date,default=1985-01-01,required" validate:"required,datetime=2006-01-02"`
	EndDate       string `yaml:"endDate,omitempty" json:"endDate,omitempty" jsonschema:"title=End Date,description=Last calendar date to request; defaults to now,format=date" validate:"omitempty,datetime=2006-01-02"`
	Output        string `yaml:"output" json:"output" jsonschema:"title=Output,description=Path of the file to create or replace,default=prices.csv,required" validate:"required"`
	Format        string `yaml:"format" json:"format" jsonschema:"title=Format,description=Output file format,enum=csv,enum=parquet,default=csv" validate:"required,oneof=csv parquet"`
	PolygonApiKey string `yaml:"polygonApiKey,omitempty" json:"polygonApiKey,omitempty" jsonschema:"title=Polygon API Key,description=Required for the polygon provider; falls back to POLYGON_API_KEY" validate:"required_if=Provider polygon"`
	Timeout       string `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,description=HTTP timeout as a Go duration (e.g. 30s)" validate:"omitempty"`
}

// DefaultFetchConfig returns the configuration used when nothing is specified.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Version:       version.GetVersion(),
		Provider:      string(ProviderYahoo),
		Ticker:        DefaultTicker,
		StartDate:     DefaultStartDate,
		EndDate:       "",
		Output:        DefaultOutput,
		Format:        string(WriterCSV),
		PolygonApiKey: "",
		Timeout:       "",
	}
}

// LoadFetchConfig reads a YAML (or JSON) file over the defaults.
func LoadFetchConfig(path string) (FetchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FetchConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseFetchConfig(data)
}

// ParseFetchConfig decodes YAML or JSON over the defaults. It does not validate.
func ParseFetchConfig(data []byte) (FetchConfig, error) {
	config := DefaultFetchConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return FetchConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	return config, nil
}

// ApplyEnv fills values that may come from the environment.
func (c *FetchConfig) ApplyEnv() {
	if c.PolygonApiKey == "" {
		c.PolygonApiKey = os.Getenv(PolygonApiKeyEnv)
	}
}

// Validate checks the file version, field constraints, the date order and the timeout syntax.
func (c *FetchConfig) Validate() error {
	if c.Version != "" {
		if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
			return err
		}
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if c.EndDate != "" {
		start, _ := time.Parse(types.DateLayout, c.StartDate)
		end, _ := time.Parse(types.DateLayout, c.EndDate)

		if !end.After(start) {
			return errors.Newf(errors.ErrCodeInvalidDate, "endDate %s must be after startDate %s", c.EndDate, c.StartDate)
		}
	}

	if _, err := c.timeout(); err != nil {
		return err
	}

	return nil
}

func (c *FetchConfig) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid timeout %q", c.Timeout)
	}

	return d, nil
}

// ToClientConfig converts a validated FetchConfig to ClientConfig.
func (c *FetchConfig) ToClientConfig() (ClientConfig, error) {
	timeout, err := c.timeout()
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		ProviderType:  ProviderType(c.Provider),
		WriterType:    WriterType(c.Format),
		PolygonApiKey: c.PolygonApiKey,
		YahooBaseURL:  "",
		Timeout:       timeout,
	}, nil
}

// ToDownloadParams converts a validated FetchConfig to DownloadParams.
// The end date is inclusive, so it is moved to the start of the following day.
func (c *FetchConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := time.Parse(types.DateLayout, c.StartDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidDate, "failed to parse startDate", err)
	}

	endDate := optional.None[time.Time]()

	if c.EndDate != "" {
		end, err := time.Parse(types.DateLayout, c.EndDate)
		if err != nil {
			return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidDate, "failed to parse endDate", err)
		}

		endDate = optional.Some(end.AddDate(0, 0, 1))
	}

	return DownloadParams{
		Ticker:     c.Ticker,
		StartDate:  startDate,
		EndDate:    endDate,
		OutputPath: c.Output,
	}, nil
}

package marketdata

import (
	"sort"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
	"github.com/rxtech-lab/argo-quotes/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name          string `json:"name"`
	DisplayName   string `json:"displayName"`
	Description   string `json:"description"`
	RequiresAuth  bool   `json:"requiresAuth"`
	ExampleTicker string `json:"exampleTicker"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderYahoo: {
		Name:          string(ProviderYahoo),
		DisplayName:   "Yahoo Finance",
		Description:   "Public chart API with daily history for stocks, ETFs and indices",
		RequiresAuth:  false,
		ExampleTicker: "^GSPC",
	},
	ProviderPolygon: {
		Name:          string(ProviderPolygon),
		DisplayName:   "Polygon.io",
		Description:   "US stock market data provider with real-time and historical OHLCV data",
		RequiresAuth:  true,
		ExampleTicker: "I:SPX",
	},
	ProviderBinance: {
		Name:          string(ProviderBinance),
		DisplayName:   "Binance",
		Description:   "Cryptocurrency exchange with extensive market data for crypto trading pairs",
		RequiresAuth:  false,
		ExampleTicker: "BTCUSDT",
	},
}

// GetSupportedProviders returns the names of all supported providers in alphabetical order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetFetchConfigSchema returns the JSON schema of the fetch configuration file.
func GetFetchConfigSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return utils.GetSchemaFromConfig(FetchConfig{})
}

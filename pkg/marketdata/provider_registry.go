package marketdata

import (
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-lean-data/pkg/errors"
	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-lean-data/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string       `json:"name"`
	DisplayName  string       `json:"displayName"`
	Description  string       `json:"description"`
	RequiresAuth bool         `json:"requiresAuth"`
	AssetClasses []AssetClass `json:"assetClasses"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderYahoo: {
		Name:         string(provider.ProviderYahoo),
		DisplayName:  "Yahoo Finance",
		Description:  "Free daily history for stocks, crypto pairs and currency pairs",
		RequiresAuth: false,
		AssetClasses: []AssetClass{AssetClassEquity, AssetClassCrypto, AssetClassForex},
	},
	provider.ProviderPolygon: {
		Name:         string(provider.ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock, crypto and forex aggregates; needs POLYGON_API_KEY",
		RequiresAuth: true,
		AssetClasses: []AssetClass{AssetClassEquity, AssetClassCrypto, AssetClassForex},
	},
	provider.ProviderBinance: {
		Name:         string(provider.ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange klines; USD pairs are read from the USDT books",
		RequiresAuth: false,
		AssetClasses: []AssetClass{AssetClassCrypto},
	},
}

// GetSupportedProviders returns the names of all supported providers, sorted.
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
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// ProviderDisplayName returns the human readable provider name used in the report lines.
func ProviderDisplayName(providerType provider.ProviderType) string {
	if info, ok := providerRegistry[providerType]; ok {
		return info.DisplayName
	}

	return string(providerType)
}

// GetConfigSchema returns the JSON schema of the YAML configuration file.
func GetConfigSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	schema, err := utils.GetSchemaFromConfig(Config{})
	if err != nil {
		return "", fmt.Errorf("failed to build config schema: %w", err)
	}

	return schema, nil
}

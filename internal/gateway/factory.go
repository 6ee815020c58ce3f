// Package gateway builds the market-data provider named by the config.
package gateway

import (
	"fmt"
	"strings"
	"time"

	"ihsan/internal/config"
	"ihsan/internal/gateway/binance"
	"ihsan/internal/gateway/yahoo"
	"ihsan/internal/logger"
	"ihsan/internal/market"

	"github.com/prometheus/client_golang/prometheus"
)

// NewProviderFromConfig returns the configured provider, decorated with the
// Binance fast quote when enabled. reg may be nil.
func NewProviderFromConfig(cfg *config.Config, reg prometheus.Registerer) (market.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	pc := cfg.Provider
	var base market.Provider
	switch strings.ToLower(pc.Name) {
	case "", "yahoo":
		client, err := yahoo.New(yahoo.Config{
			QuoteURL:         pc.QuoteURL,
			ChartURL:         pc.ChartURL,
			TimeseriesURL:    pc.TimeseriesURL,
			CookieURL:        pc.CookieURL,
			CrumbURL:         pc.CrumbURL,
			UserAgent:        pc.UserAgent,
			Timeout:          pc.Timeout(),
			RatePerSecond:    pc.RatePerSecond,
			Burst:            pc.Burst,
			MaxRetries:       pc.MaxRetries,
			RetryBackoff:     pc.RetryBackoff(),
			BreakerThreshold: pc.BreakerThreshold,
			BreakerCooldown:  pc.BreakerCooldown(),
			DumpPayload:      pc.DumpPayload,
		}, yahoo.NewMetrics(reg))
		if err != nil {
			return nil, err
		}
		base = client
	default:
		return nil, fmt.Errorf("unsupported market provider: %s", pc.Name)
	}
	if !cfg.Binance.Enabled {
		return base, nil
	}
	logger.Infof("binance fast quote enabled (%s)", cfg.Binance.BaseURL)
	return market.WithQuoteSource(base, binance.New(binance.Config{
		RESTBaseURL: cfg.Binance.BaseURL,
		HTTPTimeout: time.Duration(cfg.Binance.HTTPTimeoutSeconds) * time.Second,
	})), nil
}

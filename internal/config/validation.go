package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate checks the merged configuration after defaults are applied.
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Provider.validate(); err != nil {
		return err
	}
	if err := c.Binance.validate(); err != nil {
		return err
	}
	if err := c.Screening.validate(); err != nil {
		return err
	}
	if err := c.Zakat.validate(); err != nil {
		return err
	}
	if err := validateRate("portfolio.stock_purification_rate", c.Portfolio.StockPurificationRate); err != nil {
		return err
	}
	if err := validateRate("simulation.purification_rate", c.Simulation.PurificationRate); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug|info|warn|error, got %q", a.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(a.LogFormat)) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	if !strings.HasPrefix(strings.TrimSpace(a.APIPrefix), "/") {
		return fmt.Errorf("app.api_prefix must start with '/', got %q", a.APIPrefix)
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	if p.Name != "yahoo" {
		return fmt.Errorf("unsupported provider: %s", p.Name)
	}
	for key, raw := range map[string]string{
		"provider.quote_url":      p.QuoteURL,
		"provider.chart_url":      p.ChartURL,
		"provider.timeseries_url": p.TimeseriesURL,
		"provider.cookie_url":     p.CookieURL,
		"provider.crumb_url":      p.CrumbURL,
	} {
		if err := validateURL(key, raw); err != nil {
			return err
		}
	}
	if p.TimeoutSeconds <= 0 {
		return fmt.Errorf("provider.timeout_seconds must be > 0")
	}
	if p.RatePerSecond <= 0 {
		return fmt.Errorf("provider.rate_per_second must be > 0")
	}
	if p.Burst <= 0 {
		return fmt.Errorf("provider.burst must be > 0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("provider.max_retries must be >= 0")
	}
	if p.RetryBackoffMS < 0 {
		return fmt.Errorf("provider.retry_backoff_ms must be >= 0")
	}
	if p.BreakerCooldownSeconds < 0 {
		return fmt.Errorf("provider.breaker_cooldown_seconds must be >= 0")
	}
	return nil
}

func (b *BinanceConfig) validate() error {
	if !b.Enabled {
		return nil
	}
	if strings.TrimSpace(b.BaseURL) == "" {
		return fmt.Errorf("binance.base_url is required when binance is enabled")
	}
	return validateURL("binance.base_url", b.BaseURL)
}

func (s *ScreeningConfig) validate() error {
	if s.Concurrency <= 0 || s.Concurrency > 64 {
		return fmt.Errorf("screening.concurrency must be between 1 and 64, got %d", s.Concurrency)
	}
	if s.SymbolTimeoutSeconds <= 0 {
		return fmt.Errorf("screening.symbol_timeout_seconds must be > 0")
	}
	return nil
}

func (z *ZakatConfig) validate() error {
	if strings.TrimSpace(z.GoldSymbol) == "" || strings.TrimSpace(z.SilverSymbol) == "" {
		return fmt.Errorf("zakat.gold_symbol and zakat.silver_symbol are required")
	}
	if z.GoldGramFallback <= 0 || z.SilverGramFallback <= 0 {
		return fmt.Errorf("zakat fallback prices must be > 0")
	}
	return nil
}

func validateRate(key string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0,1], got %g", key, v)
	}
	return nil
}

// validateURL accepts an empty value, which means the client default.
func validateURL(key, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s is not an absolute URL: %q", key, raw)
	}
	return nil
}

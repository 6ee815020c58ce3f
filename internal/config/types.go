package config

import (
	"strings"
	"time"
)

// Config is the root of ihsan's configuration.
type Config struct {
	App        AppConfig        `toml:"app"`
	Provider   ProviderConfig   `toml:"provider"`
	Binance    BinanceConfig    `toml:"binance"`
	Screening  ScreeningConfig  `toml:"screening"`
	Zakat      ZakatConfig      `toml:"zakat"`
	Portfolio  PortfolioConfig  `toml:"portfolio"`
	Simulation SimulationConfig `toml:"simulation"`
}

type AppConfig struct {
	Env             string `toml:"env"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	LogPath         string `toml:"log_path"`
	ProviderLogPath string `toml:"provider_log_path"`
	HTTPAddr        string `toml:"http_addr"`
	APIPrefix       string `toml:"api_prefix"`
}

// ProviderConfig describes the market-data provider endpoints and the
// client-side limits applied to them.
type ProviderConfig struct {
	Name                   string  `toml:"name"`
	QuoteURL               string  `toml:"quote_url"`
	ChartURL               string  `toml:"chart_url"`
	TimeseriesURL          string  `toml:"timeseries_url"`
	CookieURL              string  `toml:"cookie_url"`
	CrumbURL               string  `toml:"crumb_url"`
	UserAgent              string  `toml:"user_agent"`
	TimeoutSeconds         int     `toml:"timeout_seconds"`
	RatePerSecond          float64 `toml:"rate_per_second"`
	Burst                  int     `toml:"burst"`
	MaxRetries             int     `toml:"max_retries"`
	RetryBackoffMS         int     `toml:"retry_backoff_ms"`
	BreakerThreshold       int     `toml:"breaker_threshold"`
	BreakerCooldownSeconds int     `toml:"breaker_cooldown_seconds"`
	DumpPayload            bool    `toml:"dump_payload"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p ProviderConfig) RetryBackoff() time.Duration {
	return time.Duration(p.RetryBackoffMS) * time.Millisecond
}

func (p ProviderConfig) BreakerCooldown() time.Duration {
	return time.Duration(p.BreakerCooldownSeconds) * time.Second
}

// BinanceConfig enables the spot ticker as a fast quote for crypto pairs.
type BinanceConfig struct {
	Enabled            bool   `toml:"enabled"`
	BaseURL            string `toml:"base_url"`
	HTTPTimeoutSeconds int    `toml:"http_timeout_seconds"`
}

type ScreeningConfig struct {
	Concurrency          int    `toml:"concurrency"`
	SymbolTimeoutSeconds int    `toml:"symbol_timeout_seconds"`
	Technicals           bool   `toml:"technicals"`
	RulesPath            string `toml:"rules_path"`
	WatchRules           bool   `toml:"watch_rules"`
}

func (s ScreeningConfig) SymbolTimeout() time.Duration {
	return time.Duration(s.SymbolTimeoutSeconds) * time.Second
}

type ZakatConfig struct {
	GoldSymbol         string  `toml:"gold_symbol"`
	SilverSymbol       string  `toml:"silver_symbol"`
	GoldGramFallback   float64 `toml:"gold_gram_fallback"`
	SilverGramFallback float64 `toml:"silver_gram_fallback"`
}

type PortfolioConfig struct {
	StockPurificationRate float64 `toml:"stock_purification_rate"`
}

type SimulationConfig struct {
	PurificationRate float64 `toml:"purification_rate"`
}

// keySet tracks the key paths explicitly set in the config files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

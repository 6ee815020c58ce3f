package config

import "strings"

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppLogFormat     = "text"
	defaultAppHTTPAddr      = ":5000"
	defaultAppAPIPrefix     = "/api"
	defaultProviderName     = "yahoo"
	defaultProviderTimeout  = 15
	defaultProviderRate     = 4
	defaultProviderBurst    = 4
	defaultProviderRetries  = 2
	defaultProviderBackoff  = 300
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30
	defaultBinanceBaseURL   = "https://api.binance.com"
	defaultBinanceTimeout   = 5
	defaultConcurrency      = 4
	defaultSymbolTimeout    = 20
	defaultGoldSymbol       = "XAUEUR=X"
	defaultSilverSymbol     = "XAGEUR=X"
	defaultGoldGram         = 136
	defaultSilverGram       = 2.82
	defaultPurificationRate = 0.05
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults(make(keySet))
	return &cfg
}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Provider.applyDefaults(keys)
	c.Binance.applyDefaults(keys)
	c.Screening.applyDefaults(keys)
	c.Zakat.applyDefaults(keys)
	c.Portfolio.applyDefaults(keys)
	c.Simulation.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.api_prefix", &a.APIPrefix, defaultAppAPIPrefix),
	)
}

func (p *ProviderConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("provider.name", &p.Name, defaultProviderName),
		intFieldDefault("provider.timeout_seconds", &p.TimeoutSeconds, defaultProviderTimeout),
		fieldDefault{
			key:   "provider.rate_per_second",
			need:  func() bool { return p.RatePerSecond <= 0 },
			apply: func() { p.RatePerSecond = defaultProviderRate },
		},
		intFieldDefault("provider.burst", &p.Burst, defaultProviderBurst),
		fieldDefault{
			key:   "provider.max_retries",
			need:  func() bool { return p.MaxRetries == 0 },
			apply: func() { p.MaxRetries = defaultProviderRetries },
		},
		intFieldDefault("provider.retry_backoff_ms", &p.RetryBackoffMS, defaultProviderBackoff),
		intFieldDefault("provider.breaker_threshold", &p.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("provider.breaker_cooldown_seconds", &p.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
}

func (b *BinanceConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("binance.base_url", &b.BaseURL, defaultBinanceBaseURL),
		intFieldDefault("binance.http_timeout_seconds", &b.HTTPTimeoutSeconds, defaultBinanceTimeout),
	)
}

func (s *ScreeningConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("screening.concurrency", &s.Concurrency, defaultConcurrency),
		intFieldDefault("screening.symbol_timeout_seconds", &s.SymbolTimeoutSeconds, defaultSymbolTimeout),
		boolFieldDefault("screening.technicals", &s.Technicals, true),
		boolFieldDefault("screening.watch_rules", &s.WatchRules, true),
	)
}

func (z *ZakatConfig) applyDefaults(keys keySet) {
	if z == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("zakat.gold_symbol", &z.GoldSymbol, defaultGoldSymbol),
		stringFieldDefault("zakat.silver_symbol", &z.SilverSymbol, defaultSilverSymbol),
		floatFieldDefault("zakat.gold_gram_fallback", &z.GoldGramFallback, defaultGoldGram),
		floatFieldDefault("zakat.silver_gram_fallback", &z.SilverGramFallback, defaultSilverGram),
	)
}

func (p *PortfolioConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("portfolio.stock_purification_rate", &p.StockPurificationRate, defaultPurificationRate),
	)
}

func (s *SimulationConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("simulation.purification_rate", &s.PurificationRate, defaultPurificationRate),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target <= 0 },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target <= 0 },
		apply: func() { *target = def },
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

package yahoo

import (
	"strings"
	"time"
)

// Config tunes the Yahoo Finance client. Zero values take the defaults.
type Config struct {
	QuoteURL      string
	ChartURL      string
	TimeseriesURL string
	CookieURL     string
	CrumbURL      string
	UserAgent     string

	Timeout       time.Duration
	RatePerSecond float64
	Burst         int

	MaxRetries   int
	RetryBackoff time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration

	DumpPayload bool
}

const (
	defaultQuoteURL  = "https://query2.finance.yahoo.com"
	defaultCookieURL = "https://fc.yahoo.com"
	defaultCrumbURL  = "https://query1.finance.yahoo.com/v1/test/getcrumb"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultTimeout   = 15 * time.Second
	defaultRate      = 4.0
	defaultBurst     = 4
	defaultBackoff   = 300 * time.Millisecond
	defaultThreshold = 5
	defaultCooldown  = 30 * time.Second
)

func (c Config) withDefaults() Config {
	out := c
	out.QuoteURL = trimURL(out.QuoteURL, defaultQuoteURL)
	out.ChartURL = trimURL(out.ChartURL, out.QuoteURL)
	out.TimeseriesURL = trimURL(out.TimeseriesURL, out.QuoteURL)
	out.CookieURL = trimURL(out.CookieURL, defaultCookieURL)
	out.CrumbURL = trimURL(out.CrumbURL, defaultCrumbURL)
	if strings.TrimSpace(out.UserAgent) == "" {
		out.UserAgent = defaultUserAgent
	}
	if out.Timeout <= 0 {
		out.Timeout = defaultTimeout
	}
	if out.RatePerSecond <= 0 {
		out.RatePerSecond = defaultRate
	}
	if out.Burst <= 0 {
		out.Burst = defaultBurst
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = defaultBackoff
	}
	if out.BreakerThreshold == 0 {
		out.BreakerThreshold = defaultThreshold
	}
	if out.BreakerCooldown <= 0 {
		out.BreakerCooldown = defaultCooldown
	}
	return out
}

func trimURL(v, fallback string) string {
	v = strings.TrimRight(strings.TrimSpace(v), "/")
	if v == "" {
		return fallback
	}
	return v
}

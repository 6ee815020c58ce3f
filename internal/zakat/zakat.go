// Package zakat computes the annual zakat due on liquid wealth against the
// gold and silver nisab.
package zakat

import (
	"context"
	"errors"
	"strings"

	"ihsan/internal/logger"
	"ihsan/internal/market"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	SourceLive   = "live"
	SourceBackup = "backup"
)

var (
	troyOunceGrams   = decimal.RequireFromString("31.1035")
	goldNisabGrams   = decimal.NewFromInt(85)
	silverNisabGrams = decimal.NewFromInt(595)
	zakatRate        = decimal.RequireFromString("0.025")

	// live per-gram quotes below these are treated as bad data
	goldPlausibleAbove   = decimal.NewFromInt(50)
	silverPlausibleAbove = decimal.RequireFromString("0.5")
)

type Config struct {
	GoldSymbol         string
	SilverSymbol       string
	GoldGramFallback   float64
	SilverGramFallback float64
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.GoldSymbol) == "" {
		c.GoldSymbol = "XAUEUR=X"
	}
	if strings.TrimSpace(c.SilverSymbol) == "" {
		c.SilverSymbol = "XAGEUR=X"
	}
	if c.GoldGramFallback <= 0 {
		c.GoldGramFallback = 136
	}
	if c.SilverGramFallback <= 0 {
		c.SilverGramFallback = 2.82
	}
	return c
}

// MetalPrices are per-gram prices. Source is "live" when the gold price came
// from the provider.
type MetalPrices struct {
	GoldGram   decimal.Decimal
	SilverGram decimal.Decimal
	Source     string
}

// Assets are the zakatable holdings and the debts deducted from them.
type Assets struct {
	Cash    decimal.Decimal
	Savings decimal.Decimal
	Stocks  decimal.Decimal
	Crypto  decimal.Decimal
	Gold    decimal.Decimal
	Debts   decimal.Decimal
}

type Nisab struct {
	GoldThreshold   float64 `json:"gold_threshold"`
	SilverThreshold float64 `json:"silver_threshold"`
	GoldPriceGram   float64 `json:"gold_price_g"`
	SilverPriceGram float64 `json:"silver_price_g"`
	Source          string  `json:"source"`
}

type Result struct {
	NetWealth    float64 `json:"net_wealth"`
	ZakatPayable float64 `json:"zakat_payable"`
	IsDue        bool    `json:"is_due"`
	Nisab        Nisab   `json:"nisab_data"`
}

type Calculator struct {
	provider market.Provider
	cfg      Config
}

func NewCalculator(provider market.Provider, cfg Config) *Calculator {
	return &Calculator{provider: provider, cfg: cfg.withDefaults()}
}

// Calculate prices the nisab and computes the zakat on a.
func (c *Calculator) Calculate(ctx context.Context, a Assets) Result {
	return Compute(a, c.MetalPrices(ctx))
}

// MetalPrices fetches gold and silver concurrently. Each metal falls back to
// its configured price when the quote is missing or implausible.
func (c *Calculator) MetalPrices(ctx context.Context) MetalPrices {
	prices := MetalPrices{
		GoldGram:   decimal.NewFromFloat(c.cfg.GoldGramFallback),
		SilverGram: decimal.NewFromFloat(c.cfg.SilverGramFallback),
		Source:     SourceBackup,
	}
	var gold, silver decimal.Decimal
	var goldOK, silverOK bool
	var eg errgroup.Group
	eg.Go(func() error {
		gold, goldOK = c.gramPrice(ctx, c.cfg.GoldSymbol, goldPlausibleAbove)
		return nil
	})
	eg.Go(func() error {
		silver, silverOK = c.gramPrice(ctx, c.cfg.SilverSymbol, silverPlausibleAbove)
		return nil
	})
	_ = eg.Wait()
	if goldOK {
		prices.GoldGram = gold
		prices.Source = SourceLive
	}
	if silverOK {
		prices.SilverGram = silver
	}
	return prices
}

func (c *Calculator) gramPrice(ctx context.Context, symbol string, floor decimal.Decimal) (decimal.Decimal, bool) {
	candles, err := c.provider.FetchHistory(ctx, symbol, market.HistoryRange{Period: "5d", Interval: "1d"})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warnf("zakat: %s quote unavailable, using fallback: %v", symbol, err)
		}
		return decimal.Zero, false
	}
	closes := market.Closes(candles)
	if len(closes) == 0 {
		return decimal.Zero, false
	}
	perGram := decimal.NewFromFloat(closes[len(closes)-1]).Div(troyOunceGrams)
	if !perGram.GreaterThan(floor) {
		logger.Warnf("zakat: %s price %s/g is implausible, using fallback", symbol, perGram.StringFixed(2))
		return decimal.Zero, false
	}
	return perGram, true
}

// Compute is the pure zakat arithmetic: 2.5% of positive net wealth. Zakat is
// due once net wealth reaches the silver nisab.
func Compute(a Assets, m MetalPrices) Result {
	net := a.Cash.Add(a.Savings).Add(a.Stocks).Add(a.Crypto).Add(a.Gold).Sub(a.Debts)
	payable := decimal.Zero
	if net.IsPositive() {
		payable = net.Mul(zakatRate)
	}
	goldNisab := m.GoldGram.Mul(goldNisabGrams)
	silverNisab := m.SilverGram.Mul(silverNisabGrams)
	return Result{
		NetWealth:    money(net),
		ZakatPayable: money(payable),
		IsDue:        net.IsPositive() && net.GreaterThanOrEqual(silverNisab),
		Nisab: Nisab{
			GoldThreshold:   money(goldNisab),
			SilverThreshold: money(silverNisab),
			GoldPriceGram:   money(m.GoldGram),
			SilverPriceGram: money(m.SilverGram),
			Source:          m.Source,
		},
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

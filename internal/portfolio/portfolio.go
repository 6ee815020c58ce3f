// Package portfolio values a list of holdings and estimates the dividend
// purification each one owes.
package portfolio

import (
	"context"
	"fmt"
	"strings"

	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/normalize"
	"ihsan/internal/pkg/symbol"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type AssetType string

const (
	AssetStock      AssetType = "stock"
	AssetETFIslamic AssetType = "etf_islamic"
	AssetSukuk      AssetType = "sukuk"
)

// ParseAssetType defaults unknown and empty types to stock, the only type
// that owes purification.
func ParseAssetType(s string) AssetType {
	switch AssetType(strings.ToLower(strings.TrimSpace(s))) {
	case AssetETFIslamic:
		return AssetETFIslamic
	case AssetSukuk:
		return AssetSukuk
	default:
		return AssetStock
	}
}

// Position is one holding as entered by the user.
type Position struct {
	Ticker   string          `json:"ticker"`
	Quantity decimal.Decimal `json:"qty"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	Type     AssetType       `json:"type"`
}

// Line is a valued position. Valued is false when pricing failed and the
// line only echoes the input.
type Line struct {
	Ticker           string    `json:"ticker"`
	Quantity         float64   `json:"qty"`
	AvgPrice         float64   `json:"avg_price"`
	Type             AssetType `json:"type"`
	Valued           bool      `json:"-"`
	CurrentPrice     float64   `json:"current_price,omitempty"`
	Value            float64   `json:"value,omitempty"`
	Gain             float64   `json:"gain,omitempty"`
	GainPercent      float64   `json:"gain_percent,omitempty"`
	DividendYield    float64   `json:"dividend_yield_percent,omitempty"`
	EstDividends     float64   `json:"est_dividends,omitempty"`
	Purification     float64   `json:"purification,omitempty"`
	PurificationNote string    `json:"purification_note,omitempty"`
}

type Report struct {
	TotalValue        float64 `json:"total_value"`
	TotalPurification float64 `json:"total_purification_annual"`
	Assets            []Line  `json:"assets"`
}

type Config struct {
	StockPurificationRate float64
	Concurrency           int
}

type Analyzer struct {
	provider  market.Provider
	stockRate decimal.Decimal
	limit     int
}

func NewAnalyzer(provider market.Provider, cfg Config) *Analyzer {
	rate := cfg.StockPurificationRate
	if rate <= 0 {
		rate = 0.05
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = 4
	}
	return &Analyzer{provider: provider, stockRate: decimal.NewFromFloat(rate), limit: limit}
}

// Analyze values every position concurrently. Order is preserved and a
// position that cannot be priced is returned unvalued.
func (a *Analyzer) Analyze(ctx context.Context, positions []Position) Report {
	lines := make([]Line, len(positions))
	var eg errgroup.Group
	eg.SetLimit(a.limit)
	for i, pos := range positions {
		eg.Go(func() error {
			line, err := a.value(ctx, pos)
			if err != nil {
				logger.Warnf("portfolio: %s not valued: %v", pos.Ticker, err)
				line = echo(pos)
			}
			lines[i] = line
			return nil
		})
	}
	_ = eg.Wait()

	total, purification := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if !l.Valued {
			continue
		}
		total = total.Add(decimal.NewFromFloat(l.Value))
		purification = purification.Add(decimal.NewFromFloat(l.Purification))
	}
	return Report{
		TotalValue:        money(total),
		TotalPurification: money(purification),
		Assets:            lines,
	}
}

func (a *Analyzer) value(ctx context.Context, pos Position) (Line, error) {
	ticker := symbol.Normalize(pos.Ticker)
	if ticker == "" {
		return Line{}, fmt.Errorf("empty ticker")
	}
	price := pos.AvgPrice
	candles, err := a.provider.FetchHistory(ctx, ticker, market.HistoryRange{Period: "5d", Interval: "1d"})
	if err != nil {
		if ctx.Err() != nil {
			return Line{}, ctx.Err()
		}
		logger.Debugf("portfolio: %s history unavailable, using average price: %v", ticker, err)
	} else if closes := market.Closes(candles); len(closes) > 0 {
		price = decimal.NewFromFloat(closes[len(closes)-1])
	}

	var yieldPct float64
	raw, err := a.provider.FetchProfile(ctx, ticker)
	switch {
	case err == nil:
		yieldPct = normalize.NormalizeDividendYield(firstNonNil(raw.DividendYield, raw.TrailingYield))
	case ctx.Err() != nil:
		return Line{}, ctx.Err()
	default:
		logger.Debugf("portfolio: %s profile unavailable, assuming no dividend: %v", ticker, err)
	}

	typ := pos.Type
	if typ == "" {
		typ = AssetStock
	}
	value := pos.Quantity.Mul(price)
	cost := pos.Quantity.Mul(pos.AvgPrice)
	gain := value.Sub(cost)
	gainPct := decimal.Zero
	if pos.AvgPrice.IsPositive() {
		gainPct = price.Sub(pos.AvgPrice).Div(pos.AvgPrice).Mul(decimal.NewFromInt(100))
	}
	dividends := value.Mul(decimal.NewFromFloat(yieldPct)).Div(decimal.NewFromInt(100))
	rate, note := a.purificationRate(typ)

	return Line{
		Ticker:           ticker,
		Quantity:         pos.Quantity.InexactFloat64(),
		AvgPrice:         pos.AvgPrice.InexactFloat64(),
		Type:             typ,
		Valued:           true,
		CurrentPrice:     money(price),
		Value:            money(value),
		Gain:             money(gain),
		GainPercent:      money(gainPct),
		DividendYield:    yieldPct,
		EstDividends:     money(dividends),
		Purification:     money(dividends.Mul(rate)),
		PurificationNote: note,
	}, nil
}

func (a *Analyzer) purificationRate(t AssetType) (decimal.Decimal, string) {
	if t == AssetStock {
		return a.stockRate, a.stockRate.Mul(decimal.NewFromInt(100)).String() + "% of dividends"
	}
	return decimal.Zero, "exempt (" + string(t) + ")"
}

func echo(pos Position) Line {
	return Line{
		Ticker:   pos.Ticker,
		Quantity: pos.Quantity.InexactFloat64(),
		AvgPrice: pos.AvgPrice.InexactFloat64(),
		Type:     pos.Type,
	}
}

func firstNonNil(ps ...*float64) *float64 {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

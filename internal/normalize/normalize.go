package normalize

import (
	"errors"
	"html"
	"math"
	"strings"

	"ihsan/internal/market"

	"github.com/microcosm-cc/bluemonday"
)

// ErrUnresolvable is returned when a raw record carries nothing usable.
var ErrUnresolvable = errors.New("normalize: provider record unresolvable")

// Dividend-yield unit reconciliation thresholds. Raw values above
// yieldMisScaledAbove are percentages scaled once too often (500 means 5%);
// values above yieldFractionMax are already percentages; the rest are
// fractions.
const (
	yieldMisScaledAbove = 50.0
	yieldFractionMax    = 1.0
)

// Ratios such as ROE and profit margin arrive as fractions; ROE above 100%
// is common, so anything up to ratioFractionMax (500%) is still a fraction.
const ratioFractionMax = 5.0

// peImplausibleAbove marks trailing P/E values too large to be meaningful.
const peImplausibleAbove = 200.0

var narrativePolicy = bluemonday.StrictPolicy()

// Normalize builds a FinancialProfile from one raw record.
func Normalize(raw market.RawRecord) (FinancialProfile, error) {
	if raw.IsEmpty() {
		return FinancialProfile{}, ErrUnresolvable
	}
	ticker := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	debt, cash, hasSheet := ResolveBalanceSheet(raw.BalanceSheet)
	yield := raw.DividendYield
	if yield == nil {
		yield = raw.TrailingYield
	}
	return FinancialProfile{
		Ticker:           ticker,
		Name:             resolveName(raw, ticker),
		AssetClass:       market.ParseAssetClass(raw.QuoteType),
		Currency:         strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Sector:           orUnknown(raw.Sector),
		Industry:         orUnknown(raw.Industry),
		Narrative:        CleanNarrative(firstNonBlank(raw.LongBusinessSummary, raw.Description)),
		Price:            ResolvePrice(raw),
		MarketCap:        ResolveMarketCap(raw),
		TotalDebt:        debt,
		Cash:             cash,
		HasBalanceSheet:  hasSheet,
		PE:               SmoothPE(raw.TrailingPE, raw.ForwardPE),
		ROE:              optionalFrom(NormalizeRatioPercent(raw.ReturnOnEquity)),
		DividendYield:    NormalizeDividendYield(yield),
		ProfitMargin:     optionalFrom(NormalizeRatioPercent(raw.ProfitMargin)),
		PEG:              optionalFrom(raw.PEGRatio),
		FiftyTwoWeekHigh: optionalFrom(positive(raw.FiftyTwoWeekHigh)),
		FiftyTwoWeekLow:  optionalFrom(positive(raw.FiftyTwoWeekLow)),
	}, nil
}

// ResolvePrice walks the price priority list: live quote, current price,
// regular market price, previous close. The first positive candidate wins;
// none yields 0.
func ResolvePrice(raw market.RawRecord) float64 {
	return firstPositive(raw.LivePrice, raw.CurrentPrice, raw.RegularMarketPrice, raw.PreviousClose)
}

// ResolveMarketCap prefers the quote's market cap over the summary's.
func ResolveMarketCap(raw market.RawRecord) float64 {
	return firstPositive(raw.MarketCap, raw.SummaryMarketCap)
}

// NormalizeDividendYield returns the yield in percentage points (3.5 = 3.5%).
//
//	nil or negative  -> 0
//	raw > 50         -> raw / 100  (mis-scaled percentage)
//	1 < raw <= 50    -> raw        (already a percentage)
//	0 <= raw <= 1    -> raw * 100  (fraction)
func NormalizeDividendYield(raw *float64) float64 {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) || *raw <= 0 {
		return 0
	}
	v := *raw
	switch {
	case v > yieldMisScaledAbove:
		return Round2(v / 100)
	case v > yieldFractionMax:
		return Round2(v)
	default:
		return Round2(v * 100)
	}
}

// NormalizeRatioPercent converts a fractional ratio (ROE, margin) to
// percentage points. Values whose magnitude exceeds 500% are taken to be
// percentages already.
func NormalizeRatioPercent(raw *float64) *float64 {
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return nil
	}
	v := *raw
	if math.Abs(v) <= ratioFractionMax {
		v *= 100
	}
	v = Round2(v)
	return &v
}

// SmoothPE prefers trailing P/E and falls back to forward P/E when trailing
// is absent or implausibly large. Both absent is "not applicable", never 0.
func SmoothPE(trailing, forward *float64) Optional {
	t := optionalFrom(trailing)
	f := optionalFrom(forward)
	if t.Valid && t.Value <= peImplausibleAbove {
		return Some(Round2(t.Value))
	}
	if f.Valid {
		return Some(Round2(f.Value))
	}
	if t.Valid {
		return Some(Round2(t.Value))
	}
	return None()
}

// ResolveBalanceSheet returns total debt and cash. A missing balance sheet
// resolves both to 0 with ok=false.
func ResolveBalanceSheet(bs *market.BalanceSheet) (debt, cash float64, ok bool) {
	if bs == nil || len(bs.Lines) == 0 {
		return 0, 0, false
	}
	debt, _ = bs.Line(market.LineTotalDebt)
	return nonNegative(debt), ResolveCash(bs), true
}

// ResolveCash reads cash and equivalents, falling back to the line used by
// financial-sector filers. The two are never summed. Short-term investments
// add to whichever line was found.
func ResolveCash(bs *market.BalanceSheet) float64 {
	cash, ok := bs.Line(market.LineCashAndCashEquivalents)
	if !ok {
		cash, _ = bs.Line(market.LineCashFinancial)
	}
	if sti, ok := bs.Line(market.LineOtherShortTermInvestments); ok {
		cash += sti
	}
	return nonNegative(cash)
}

// CleanNarrative strips markup from a business description and lower-cases
// it for keyword matching.
func CleanNarrative(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = html.UnescapeString(narrativePolicy.Sanitize(text))
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func resolveName(raw market.RawRecord, ticker string) string {
	if name := firstNonBlank(raw.LongName, raw.ShortName); name != "" {
		return name
	}
	return ticker
}

func firstPositive(candidates ...*float64) float64 {
	for _, c := range candidates {
		if c == nil || math.IsNaN(*c) || math.IsInf(*c, 0) {
			continue
		}
		if *c > 0 {
			return *c
		}
	}
	return 0
}

func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	return p
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

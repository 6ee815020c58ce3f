// Package normalize turns raw, partially missing provider records into
// FinancialProfile values that downstream arithmetic can trust.
package normalize

import (
	"encoding/json"
	"math"

	"ihsan/internal/market"
)

// Unknown is used for absent sector and industry classifications.
const Unknown = "Unknown"

// safeRatioBase keeps RatioBase non-zero. Callers check HasMarketCap before
// dividing by it.
const safeRatioBase = 1.0

// Optional is a nullable number that serializes as "N/A" when absent.
type Optional struct {
	Value float64
	Valid bool
}

func Some(v float64) Optional { return Optional{Value: v, Valid: true} }

func None() Optional { return Optional{} }

func optionalFrom(p *float64) Optional {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return None()
	}
	return Some(*p)
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(Round2(o.Value))
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		// "N/A" and any other string mean absent
		*o = None()
		return nil
	}
	*o = optionalFrom(v)
	return nil
}

// FinancialProfile is the canonical, immutable view of one symbol. It is a
// value type; every consumer gets its own copy.
type FinancialProfile struct {
	Ticker     string            `json:"ticker"`
	Name       string            `json:"name"`
	AssetClass market.AssetClass `json:"type"`
	Currency   string            `json:"currency,omitempty"`

	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	Narrative string `json:"-"`

	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`

	TotalDebt       float64 `json:"total_debt"`
	Cash            float64 `json:"cash"`
	HasBalanceSheet bool    `json:"has_balance_sheet"`

	PE               Optional `json:"per"`
	ROE              Optional `json:"roe"`
	DividendYield    float64  `json:"dividend_yield"`
	ProfitMargin     Optional `json:"margin"`
	PEG              Optional `json:"peg"`
	FiftyTwoWeekHigh Optional `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  Optional `json:"fifty_two_week_low"`
}

// HasMarketCap reports whether MarketCap is a usable ratio denominator.
func (p FinancialProfile) HasMarketCap() bool {
	return p.MarketCap > 0 && !math.IsInf(p.MarketCap, 0) && !math.IsNaN(p.MarketCap)
}

// RatioBase is the denominator for debt and cash ratios. It is never zero.
func (p FinancialProfile) RatioBase() float64 {
	if p.HasMarketCap() {
		return p.MarketCap
	}
	return safeRatioBase
}

// Round2 rounds to two decimals, the precision every surfaced figure uses.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package screening

import (
	"ihsan/internal/compliance"
	"ihsan/internal/market"
	"ihsan/internal/normalize"
)

// Financials are the display figures of a screened symbol.
type Financials struct {
	Price         float64            `json:"price"`
	MarketCap     float64            `json:"market_cap"`
	PE            normalize.Optional `json:"per"`
	ROE           normalize.Optional `json:"roe"`
	Margin        normalize.Optional `json:"margin"`
	DividendYield float64            `json:"div"`
	PEG           normalize.Optional `json:"peg"`
}

// Technicals default to a neutral 50/50 when history is unavailable.
type Technicals struct {
	RSI          float64 `json:"rsi"`
	Position52w  float64 `json:"position_52w"`
	CurrentPrice float64 `json:"current_price"`
}

// Result is one screened symbol as returned to clients.
type Result struct {
	Ticker   string            `json:"ticker"`
	Name     string            `json:"name"`
	Type     market.AssetClass `json:"type"`
	Sector   string            `json:"sector"`
	Industry string            `json:"industry"`
	Currency string            `json:"currency,omitempty"`

	IsHalal     bool                `json:"is_halal"`
	ShariaScore int                 `json:"sharia_score"`
	Reason      string              `json:"reason"`
	Reasons     []string            `json:"reasons"`
	Branch      compliance.Branch   `json:"branch"`
	Override    compliance.Override `json:"override,omitempty"`
	Ratios      compliance.Ratios   `json:"ratios"`
	Activity    compliance.Activity `json:"business_check"`
	Rating      int                 `json:"rating"`

	Financials Financials `json:"financials"`
	Technicals Technicals `json:"technicals"`

	Profile normalize.FinancialProfile `json:"-"`
	Verdict compliance.Verdict         `json:"-"`
}

func newResult(p normalize.FinancialProfile, v compliance.Verdict, tech Technicals) Result {
	return Result{
		Ticker:      p.Ticker,
		Name:        p.Name,
		Type:        p.AssetClass,
		Sector:      p.Sector,
		Industry:    p.Industry,
		Currency:    p.Currency,
		IsHalal:     v.IsHalal,
		ShariaScore: v.ShariaScore,
		Reason:      v.Summary,
		Reasons:     v.Reasons,
		Branch:      v.Branch,
		Override:    v.Override,
		Ratios:      v.Ratios,
		Activity:    v.Activity,
		Rating:      v.Rating,
		Financials: Financials{
			Price:         p.Price,
			MarketCap:     p.MarketCap,
			PE:            p.PE,
			ROE:           p.ROE,
			Margin:        p.ProfitMargin,
			DividendYield: p.DividendYield,
			PEG:           p.PEG,
		},
		Technicals: tech,
		Profile:    p,
		Verdict:    v,
	}
}

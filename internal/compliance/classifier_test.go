package compliance

import (
	"fmt"
	"math"
	"testing"

	"ihsan/internal/market"
	"ihsan/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equity(ticker string, capital, debt, cash float64) normalize.FinancialProfile {
	return normalize.FinancialProfile{
		Ticker:          ticker,
		Name:            ticker + " Corp",
		AssetClass:      market.AssetEquity,
		Sector:          "Technology",
		Industry:        "Software—Application",
		MarketCap:       capital,
		TotalDebt:       debt,
		Cash:            cash,
		HasBalanceSheet: true,
		PE:              normalize.None(),
		ROE:             normalize.None(),
		ProfitMargin:    normalize.None(),
		PEG:             normalize.None(),
	}
}

func TestClassifyCompliantEquity(t *testing.T) {
	c := New(DefaultRules())
	v := c.Classify(equity("MSFT", 1000, 100, 50))

	assert.True(t, v.IsHalal)
	assert.Equal(t, BranchAAOIFI, v.Branch)
	assert.InDelta(t, 10.0, v.Ratios.Debt, 1e-9)
	assert.InDelta(t, 5.0, v.Ratios.Cash, 1e-9)
	assert.True(t, v.Ratios.Passed)
	assert.False(t, v.Activity.Violated)
	assert.Empty(t, v.Reasons)
	assert.Equal(t, 86, v.ShariaScore)
	assert.Equal(t, "compliant (AAOIFI)", v.Summary)
}

func TestClassifyDebtAboveThreshold(t *testing.T) {
	c := New(DefaultRules())
	v := c.Classify(equity("LEV", 1000, 400, 100))

	assert.False(t, v.IsHalal)
	assert.InDelta(t, 40.0, v.Ratios.Debt, 1e-9)
	assert.InDelta(t, 10.0, v.Ratios.Cash, 1e-9)
	assert.False(t, v.Ratios.DebtPassed)
	assert.True(t, v.Ratios.CashPassed)
	assert.Contains(t, v.Reasons, "debt ratio 40.00% >= 33%")
	// no debt credit, partial cash credit
	assert.Equal(t, 61, v.ShariaScore)
}

func TestClassifyThresholdIsStrict(t *testing.T) {
	c := New(DefaultRules())
	v := c.Classify(equity("EDGE", 100, 33, 0))
	assert.False(t, v.Ratios.DebtPassed)
	assert.False(t, v.IsHalal)
}

func TestClassifyBreweryNarrative(t *testing.T) {
	c := New(DefaultRules())
	p := equity("BREW", 1000, 100, 50)
	p.Sector = "Consumer Defensive"
	p.Industry = "Beverages"
	p.Narrative = "the company operates a brewery and distributes its products nationwide."

	v := c.Classify(p)
	assert.False(t, v.IsHalal)
	assert.True(t, v.Activity.Violated)
	assert.Contains(t, v.Activity.Reasons, "brewery")
	assert.Equal(t, []string{"alcohol"}, v.Activity.Categories)
	assert.Equal(t, 20, v.ShariaScore)
}

func TestClassifyActivityFailScoreBelowCap(t *testing.T) {
	c := New(DefaultRules())
	p := equity("CASINO", 1000, 300, 300)
	p.Sector = "Consumer Cyclical"
	p.Industry = "Resorts & Casinos"

	v := c.Classify(p)
	assert.Contains(t, v.Activity.Reasons, "industry: Resorts & Casinos")
	// credit is 2 * 30 * (1 - 30/33) ~ 5.45
	assert.Equal(t, 5, v.ShariaScore)
}

func TestClassifySectorReasonFormat(t *testing.T) {
	c := New(DefaultRules())
	p := equity("BET", 1000, 0, 0)
	p.Sector = "Gambling"
	p.Industry = "Gambling"

	v := c.Classify(p)
	assert.Equal(t, []string{"sector: Gambling", "industry: Gambling"}, v.Activity.Reasons)
}

func TestClassifyReasonsAreDeduplicated(t *testing.T) {
	c := New(DefaultRules())
	p := equity("DUP", 1000, 0, 0)
	p.Narrative = "casino operator. the casino also offers betting."

	v := c.Classify(p)
	assert.Equal(t, []string{"casino", "betting"}, v.Activity.Reasons)
}

func TestClassifyConventionalBank(t *testing.T) {
	c := New(DefaultRules())
	p := equity("EXB", 1000, 100, 50)
	p.Sector = "Financial Services"
	p.Industry = "Banks—Regional"
	p.Narrative = "provides commercial lending and deposit services."

	v := c.Classify(p)
	assert.False(t, v.IsHalal)
	assert.Contains(t, v.Activity.Reasons, "industry: Banks—Regional")
	assert.Contains(t, v.Activity.Reasons, "lending")
	assert.False(t, v.Activity.Exempted)
}

func TestClassifyFinanceTermsOutsideFinancialSector(t *testing.T) {
	c := New(DefaultRules())
	p := equity("SOFT", 1000, 100, 50)
	p.Narrative = "builds payment software used by banks and lending platforms."

	v := c.Classify(p)
	assert.True(t, v.IsHalal)
	assert.Empty(t, v.Activity.Reasons)
}

func TestClassifyIslamicBank(t *testing.T) {
	c := New(DefaultRules())
	p := equity("1120.SR", 1000, 100, 50)
	p.Name = "Al Rajhi Banking and Investment Corporation"
	p.Sector = "Financial Services"
	p.Industry = "Banks—Regional"
	p.Narrative = "provides sharia-compliant banking and financing services."

	v := c.Classify(p)
	assert.True(t, v.IsHalal)
	assert.True(t, v.Activity.Exempted)
	assert.Empty(t, v.Activity.Reasons)
}

func TestClassifyIslamicBankStillFailsUniversalTerms(t *testing.T) {
	c := New(DefaultRules())
	p := equity("IBX", 1000, 100, 50)
	p.Name = "Example Islamic Bank"
	p.Sector = "Financial Services"
	p.Industry = "Banks—Regional"
	p.Narrative = "islamic bank that also owns a brewery."

	v := c.Classify(p)
	assert.False(t, v.IsHalal)
	assert.True(t, v.Activity.Exempted)
	assert.Contains(t, v.Activity.Reasons, "brewery")
	assert.NotContains(t, v.Activity.Reasons, "bank")
}

func TestClassifyOverrides(t *testing.T) {
	c := New(DefaultRules())

	t.Run("forced non-compliant", func(t *testing.T) {
		v := c.Classify(equity("jpm", 1000, 0, 0))
		assert.False(t, v.IsHalal)
		assert.Equal(t, 0, v.ShariaScore)
		assert.Equal(t, []string{"manual exclusion"}, v.Reasons)
		assert.Equal(t, OverrideForcedExclude, v.Override)
	})

	t.Run("forced halal wins over activity", func(t *testing.T) {
		p := equity("SPUS", 1000, 900, 900)
		p.Narrative = "brewery"
		v := c.Classify(p)
		assert.True(t, v.IsHalal)
		assert.Equal(t, 100, v.ShariaScore)
		assert.Equal(t, OverrideForcedHalal, v.Override)
		assert.Equal(t, 5, v.Rating)
	})

	t.Run("override reports zero ratios without market cap", func(t *testing.T) {
		v := c.Classify(equity("SPUS", 0, 900, 900))
		assert.True(t, v.IsHalal)
		assert.Zero(t, v.Ratios.Debt)
		assert.Zero(t, v.Ratios.Cash)
	})

	t.Run("exclusion beats certification", func(t *testing.T) {
		rules := DefaultRules()
		rules.ForcedHalal = append(rules.ForcedHalal, "BA")
		v := New(rules).Classify(equity("BA", 1000, 0, 0))
		assert.False(t, v.IsHalal)
	})
}

func TestClassifyWithoutBalanceSheet(t *testing.T) {
	c := New(DefaultRules())

	t.Run("equity missing balance sheet", func(t *testing.T) {
		p := equity("NOBS", 1000, 0, 0)
		p.HasBalanceSheet = false
		v := c.Classify(p)
		assert.True(t, v.IsHalal)
		assert.True(t, v.Ratios.Skipped)
		assert.Equal(t, BranchActivityOnly, v.Branch)
		assert.Zero(t, v.Ratios.Debt)
		assert.Equal(t, 100, v.ShariaScore)
	})

	t.Run("index", func(t *testing.T) {
		p := equity("^GSPC", 0, 500, 500)
		p.AssetClass = market.AssetIndex
		v := c.Classify(p)
		assert.True(t, v.Ratios.Skipped)
		assert.True(t, v.IsHalal)
	})

	for _, capital := range []float64{0, -250, math.NaN(), math.Inf(1)} {
		t.Run(fmt.Sprintf("market cap %v yields zero ratios", capital), func(t *testing.T) {
			v := c.Classify(equity("ZERO", capital, 500, 100))
			assert.Zero(t, v.Ratios.Debt)
			assert.Zero(t, v.Ratios.Cash)
			assert.True(t, v.Ratios.Passed)
			assert.True(t, v.IsHalal)
			for _, r := range v.Reasons {
				assert.NotContains(t, r, "ratio")
			}
		})
	}
}

func TestClassifyCrypto(t *testing.T) {
	c := New(DefaultRules())
	crypto := func(ticker, narrative string) normalize.FinancialProfile {
		return normalize.FinancialProfile{Ticker: ticker, AssetClass: market.AssetCrypto, Narrative: narrative}
	}

	cases := []struct {
		name      string
		profile   normalize.FinancialProfile
		wantHalal bool
		wantScore int
	}{
		{"stablecoin", crypto("USDT-USD", ""), false, 0},
		{"lending protocol", crypto("XYZ-USD", "a decentralized lending protocol"), false, 20},
		{"major", crypto("BTC-USD", "peer-to-peer electronic cash"), true, 95},
		{"major disqualified by narrative", crypto("ETH-USD", "earn interest by staking"), false, 20},
		{"other", crypto("SOL-USD", "smart contract platform"), true, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := c.Classify(tc.profile)
			assert.Equal(t, BranchCrypto, v.Branch)
			assert.True(t, v.Ratios.Skipped)
			assert.Equal(t, tc.wantHalal, v.IsHalal)
			assert.Equal(t, tc.wantScore, v.ShariaScore)
		})
	}
}

func TestClassifyCryptoDenylistPrecedence(t *testing.T) {
	rules := DefaultRules()
	rules.Crypto.Allowlist = append(rules.Crypto.Allowlist, "USDT-USD")
	v := New(rules).Classify(normalize.FinancialProfile{Ticker: "USDT-USD", AssetClass: market.AssetCrypto})
	assert.False(t, v.IsHalal)
	assert.Equal(t, 0, v.ShariaScore)
}

func TestScoreStaysInRange(t *testing.T) {
	c := New(DefaultRules())
	for _, debt := range []float64{0, 1, 10, 32.99, 33, 80, 1000} {
		for _, cash := range []float64{0, 5, 33, 500} {
			for _, violated := range []bool{false, true} {
				s := c.score(Ratios{Debt: debt, Cash: cash}, violated)
				require.GreaterOrEqual(t, s, 0)
				require.LessOrEqual(t, s, 100)
				if violated {
					require.LessOrEqual(t, s, 20)
				}
			}
		}
	}
}

func TestRating(t *testing.T) {
	strong := equity("AAPL", 1000, 100, 50)
	strong.ROE = normalize.Some(156)
	strong.ProfitMargin = normalize.Some(25)
	strong.PEG = normalize.Some(1.2)

	c := New(DefaultRules())
	v := c.Classify(strong)
	assert.Equal(t, 5, v.Rating)

	weak := equity("WEAK", 1000, 100, 50)
	weak.ROE = normalize.Some(10)
	weak.PEG = normalize.Some(-3)
	assert.Equal(t, 2, Rating(weak, c.Classify(weak)))

	assert.Equal(t, 1, Rating(weak, Verdict{}))
}

func TestDefaultRulesReturnsCopy(t *testing.T) {
	a := DefaultRules()
	a.ForcedHalal[0] = "CHANGED"
	assert.Equal(t, "SPUS", DefaultRules().ForcedHalal[0])
}

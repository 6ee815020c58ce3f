package market

import "strings"

// AssetClass is the screening-relevant kind of instrument.
type AssetClass string

const (
	AssetEquity AssetClass = "EQUITY"
	AssetETF    AssetClass = "ETF"
	AssetCrypto AssetClass = "CRYPTO"
	AssetIndex  AssetClass = "INDEX"
	AssetOther  AssetClass = "OTHER"
)

// ParseAssetClass maps a provider quote type onto an AssetClass. An empty
// quote type is treated as an equity, which is what the provider omits it for.
func ParseAssetClass(quoteType string) AssetClass {
	switch strings.ToUpper(strings.TrimSpace(quoteType)) {
	case "", "EQUITY", "STOCK":
		return AssetEquity
	case "ETF":
		return AssetETF
	case "CRYPTOCURRENCY", "CRYPTO":
		return AssetCrypto
	case "INDEX":
		return AssetIndex
	default:
		return AssetOther
	}
}

// HasBalanceSheetConcept reports whether ratio screening can apply at all.
func (a AssetClass) HasBalanceSheetConcept() bool {
	return a == AssetEquity || a == AssetETF
}

// Balance-sheet line items read from the most recent reported period.
const (
	LineTotalDebt                 = "TotalDebt"
	LineCashAndCashEquivalents    = "CashAndCashEquivalents"
	LineCashFinancial             = "CashFinancial"
	LineOtherShortTermInvestments = "OtherShortTermInvestments"
)

// BalanceSheetLines lists every line item the provider is asked for.
var BalanceSheetLines = []string{
	LineTotalDebt,
	LineCashAndCashEquivalents,
	LineCashFinancial,
	LineOtherShortTermInvestments,
}

// BalanceSheet maps line items to values of the most recent period.
type BalanceSheet struct {
	AsOf  string
	Lines map[string]float64
}

// Line returns the value of a line item and whether it was reported.
func (b *BalanceSheet) Line(name string) (float64, bool) {
	if b == nil || b.Lines == nil {
		return 0, false
	}
	v, ok := b.Lines[name]
	return v, ok
}

// RawRecord is the provider's per-symbol response with every field optional.
// Numeric fields are nil when the provider did not report them; string fields
// are empty. Nothing here is normalized.
type RawRecord struct {
	Symbol    string
	QuoteType string
	LongName  string
	ShortName string
	Currency  string

	Sector              string
	Industry            string
	LongBusinessSummary string
	Description         string

	LivePrice          *float64
	CurrentPrice       *float64
	RegularMarketPrice *float64
	PreviousClose      *float64

	MarketCap        *float64
	SummaryMarketCap *float64

	TrailingPE       *float64
	ForwardPE        *float64
	ReturnOnEquity   *float64
	DividendYield    *float64
	TrailingYield    *float64
	ProfitMargin     *float64
	PEGRatio         *float64
	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64

	BalanceSheet *BalanceSheet
}

// IsEmpty reports a record that carries nothing usable: no name, no
// classification and no price candidate. The provider returns such records for
// valid symbols from time to time.
func (r RawRecord) IsEmpty() bool {
	if strings.TrimSpace(r.LongName) != "" || strings.TrimSpace(r.ShortName) != "" {
		return false
	}
	if strings.TrimSpace(r.Sector) != "" || strings.TrimSpace(r.QuoteType) != "" {
		return false
	}
	for _, p := range []*float64{r.LivePrice, r.CurrentPrice, r.RegularMarketPrice, r.PreviousClose} {
		if p != nil {
			return false
		}
	}
	return true
}

// Float returns a pointer to v, for building records by hand.
func Float(v float64) *float64 {
	return &v
}

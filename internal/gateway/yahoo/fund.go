package yahoo

import (
	"context"
	"fmt"
	"strings"

	"ihsan/internal/market"

	"github.com/tidwall/gjson"
)

var fundModules = []string{"price", "quoteType", "topHoldings", "fundProfile", "assetProfile", "summaryProfile"}

// FetchFund reads holdings and sector weightings. Weights come back as
// fractions and are returned as percentages.
func (c *Client) FetchFund(ctx context.Context, symbol string) (market.FundProfile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.FundProfile{}, fmt.Errorf("symbol is required")
	}
	r, err := c.quoteSummary(ctx, symbol, fundModules)
	if err != nil {
		return market.FundProfile{}, err
	}
	return parseFund(symbol, r), nil
}

func parseFund(symbol string, r gjson.Result) market.FundProfile {
	fp := market.FundProfile{
		Symbol:      symbol,
		Name:        firstString(r, "price.longName", "quoteType.longName", "price.shortName"),
		Description: firstString(r, "assetProfile.longBusinessSummary", "summaryProfile.longBusinessSummary", "fundProfile.legalType"),
		Family:      firstString(r, "fundProfile.family"),
		Holdings:    []market.Holding{},
		Sectors:     []market.SectorWeight{},
	}
	r.Get("topHoldings.holdings").ForEach(func(_, h gjson.Result) bool {
		w := num(h, "holdingPercent")
		if w == nil {
			return true
		}
		fp.Holdings = append(fp.Holdings, market.Holding{
			Symbol: firstString(h, "symbol"),
			Name:   orDefault(firstString(h, "holdingName"), firstString(h, "symbol")),
			Weight: *w * 100,
		})
		return true
	})
	// each entry is a single-key object such as {"technology": {"raw": 0.31}}
	r.Get("topHoldings.sectorWeightings").ForEach(func(_, entry gjson.Result) bool {
		entry.ForEach(func(k, v gjson.Result) bool {
			if v.IsObject() {
				v = v.Get("raw")
			}
			if v.Type == gjson.Number {
				fp.Sectors = append(fp.Sectors, market.SectorWeight{Sector: k.String(), Weight: v.Float() * 100})
			}
			return true
		})
		return true
	})
	return fp
}

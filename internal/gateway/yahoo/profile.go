package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ihsan/internal/logger"
	"ihsan/internal/market"

	"github.com/tidwall/gjson"
)

var profileModules = []string{
	"price", "summaryDetail", "assetProfile", "summaryProfile",
	"financialData", "defaultKeyStatistics", "quoteType",
}

const timeseriesPrefix = "annual"

// FetchProfile merges the quote summary with the latest annual balance sheet.
// A missing balance sheet is not an error; the record simply has none.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (market.RawRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.RawRecord{}, fmt.Errorf("symbol is required")
	}
	summary, err := c.quoteSummary(ctx, symbol, profileModules)
	if err != nil {
		return market.RawRecord{}, err
	}
	rec := parseProfile(symbol, summary)
	if rec.IsEmpty() {
		return market.RawRecord{}, fmt.Errorf("yahoo profile %s is empty: %w", symbol, market.ErrNotFound)
	}
	if market.ParseAssetClass(rec.QuoteType).HasBalanceSheetConcept() {
		bs, err := c.fetchBalanceSheet(ctx, symbol)
		switch {
		case err == nil:
			rec.BalanceSheet = bs
		case errors.Is(err, market.ErrNotFound):
			logger.Debugf("yahoo %s has no balance sheet", symbol)
		default:
			return market.RawRecord{}, err
		}
	}
	return rec, nil
}

func (c *Client) quoteSummary(ctx context.Context, symbol string, modules []string) (gjson.Result, error) {
	q := url.Values{}
	q.Set("modules", strings.Join(modules, ","))
	q.Set("corsDomain", "finance.yahoo.com")
	target := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.cfg.QuoteURL, url.PathEscape(symbol), q.Encode())
	body, err := c.get(ctx, "quoteSummary", symbol, target, true)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("yahoo quoteSummary %s: invalid json", symbol)
	}
	res := gjson.GetBytes(body, "quoteSummary.result.0")
	if !res.Exists() || !res.IsObject() {
		return gjson.Result{}, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, market.ErrNotFound)
	}
	return res, nil
}

func parseProfile(symbol string, r gjson.Result) market.RawRecord {
	return market.RawRecord{
		Symbol:    orDefault(firstString(r, "price.symbol", "quoteType.symbol"), symbol),
		QuoteType: firstString(r, "quoteType.quoteType", "price.quoteType"),
		LongName:  firstString(r, "price.longName", "quoteType.longName"),
		ShortName: firstString(r, "price.shortName", "quoteType.shortName"),
		Currency:  firstString(r, "price.currency", "summaryDetail.currency", "financialData.financialCurrency"),

		Sector:              firstString(r, "assetProfile.sector", "summaryProfile.sector"),
		Industry:            firstString(r, "assetProfile.industry", "summaryProfile.industry"),
		LongBusinessSummary: firstString(r, "assetProfile.longBusinessSummary", "summaryProfile.longBusinessSummary"),
		Description:         firstString(r, "summaryProfile.description", "assetProfile.description"),

		CurrentPrice:       num(r, "financialData.currentPrice"),
		RegularMarketPrice: firstNum(r, "price.regularMarketPrice", "summaryDetail.regularMarketPrice"),
		PreviousClose:      firstNum(r, "price.regularMarketPreviousClose", "summaryDetail.previousClose"),

		MarketCap:        num(r, "price.marketCap"),
		SummaryMarketCap: num(r, "summaryDetail.marketCap"),

		TrailingPE:       num(r, "summaryDetail.trailingPE"),
		ForwardPE:        firstNum(r, "summaryDetail.forwardPE", "defaultKeyStatistics.forwardPE"),
		ReturnOnEquity:   num(r, "financialData.returnOnEquity"),
		DividendYield:    num(r, "summaryDetail.dividendYield"),
		TrailingYield:    firstNum(r, "summaryDetail.yield", "summaryDetail.trailingAnnualDividendYield"),
		ProfitMargin:     firstNum(r, "financialData.profitMargins", "defaultKeyStatistics.profitMargins"),
		PEGRatio:         firstNum(r, "defaultKeyStatistics.pegRatio", "financialData.pegRatio"),
		FiftyTwoWeekHigh: num(r, "summaryDetail.fiftyTwoWeekHigh"),
		FiftyTwoWeekLow:  num(r, "summaryDetail.fiftyTwoWeekLow"),
	}
}

func (c *Client) fetchBalanceSheet(ctx context.Context, symbol string) (*market.BalanceSheet, error) {
	types := make([]string, 0, len(market.BalanceSheetLines))
	for _, line := range market.BalanceSheetLines {
		types = append(types, timeseriesPrefix+line)
	}
	now := time.Now().UTC()
	q := url.Values{}
	q.Set("type", strings.Join(types, ","))
	q.Set("period1", strconv.FormatInt(now.AddDate(-5, 0, 0).Unix(), 10))
	q.Set("period2", strconv.FormatInt(now.Unix(), 10))
	target := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?%s",
		c.cfg.TimeseriesURL, url.PathEscape(symbol), q.Encode())
	body, err := c.get(ctx, "timeseries", symbol, target, false)
	if err != nil {
		return nil, err
	}
	bs := parseBalanceSheet(gjson.GetBytes(body, "timeseries.result"))
	if bs == nil {
		return nil, fmt.Errorf("yahoo timeseries %s: %w", symbol, market.ErrNotFound)
	}
	return bs, nil
}

// parseBalanceSheet keeps the most recent reporting date that carries total
// debt, or the most recent date on any line when debt is never reported, and
// the values reported for exactly that date.
func parseBalanceSheet(results gjson.Result) *market.BalanceSheet {
	byDate := map[string]map[string]float64{}
	latest, latestDebt := "", ""
	results.ForEach(func(_, item gjson.Result) bool {
		key := item.Get("meta.type.0").String()
		line, ok := strings.CutPrefix(key, timeseriesPrefix)
		if !ok || line == "" {
			return true
		}
		item.Get(key).ForEach(func(_, point gjson.Result) bool {
			date := point.Get("asOfDate").String()
			raw := point.Get("reportedValue.raw")
			if date == "" || raw.Type != gjson.Number {
				return true
			}
			if byDate[date] == nil {
				byDate[date] = map[string]float64{}
			}
			byDate[date][line] = raw.Float()
			if date > latest {
				latest = date
			}
			if line == market.LineTotalDebt && date > latestDebt {
				latestDebt = date
			}
			return true
		})
		return true
	})
	if latestDebt != "" {
		latest = latestDebt
	}
	if latest == "" {
		return nil
	}
	return &market.BalanceSheet{AsOf: latest, Lines: byDate[latest]}
}

// num reads a numeric field that Yahoo encodes either as a bare number or as
// {"raw": n, "fmt": "..."}. Anything else is absent.
func num(r gjson.Result, path string) *float64 {
	v := r.Get(path)
	if v.IsObject() {
		v = v.Get("raw")
	}
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

func firstNum(r gjson.Result, paths ...string) *float64 {
	for _, p := range paths {
		if v := num(r, p); v != nil {
			return v
		}
	}
	return nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := strings.TrimSpace(r.Get(p).String()); s != "" && r.Get(p).Type == gjson.String {
			return s
		}
	}
	return ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

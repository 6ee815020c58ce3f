package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ihsan/internal/market"

	"github.com/tidwall/gjson"
)

// FetchHistory returns bars in ascending time order with per-share
// dividends attached to the bar they were paid in. Bars without a close are
// dropped.
func (c *Client) FetchHistory(ctx context.Context, symbol string, r market.HistoryRange) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	r = r.WithDefaults()
	q := url.Values{}
	q.Set("interval", r.Interval)
	q.Set("events", "div")
	q.Set("includePrePost", "false")
	if !r.Start.IsZero() {
		end := r.End
		if end.IsZero() {
			end = time.Now()
		}
		q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
		q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	} else {
		q.Set("range", r.Period)
	}
	target := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.cfg.ChartURL, url.PathEscape(symbol), q.Encode())
	body, err := c.get(ctx, "chart", symbol, target, false)
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(body, "chart.result.0")
	if !res.Exists() {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, market.ErrNotFound)
	}
	return parseChart(res), nil
}

func parseChart(res gjson.Result) []market.Candle {
	stamps := res.Get("timestamp").Array()
	quote := res.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	at := func(arr []gjson.Result, i int) float64 {
		if i < len(arr) && arr[i].Type == gjson.Number {
			return arr[i].Float()
		}
		return 0
	}
	candles := make([]market.Candle, 0, len(stamps))
	for i, ts := range stamps {
		cl := at(closes, i)
		if cl <= 0 {
			continue
		}
		candles = append(candles, market.Candle{
			Time:   time.Unix(ts.Int(), 0).UTC(),
			Open:   at(opens, i),
			High:   at(highs, i),
			Low:    at(lows, i),
			Close:  cl,
			Volume: at(volumes, i),
		})
	}
	attachDividends(candles, res.Get("events.dividends"))
	return candles
}

// attachDividends books each dividend on the last bar at or before its date.
func attachDividends(candles []market.Candle, events gjson.Result) {
	if len(candles) == 0 || !events.IsObject() {
		return
	}
	events.ForEach(func(_, ev gjson.Result) bool {
		amount := ev.Get("amount").Float()
		date := time.Unix(ev.Get("date").Int(), 0).UTC()
		if amount <= 0 {
			return true
		}
		idx := sort.Search(len(candles), func(i int) bool { return candles[i].Time.After(date) }) - 1
		if idx >= 0 {
			candles[idx].Dividend += amount
		}
		return true
	})
}

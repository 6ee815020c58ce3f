// Package chart serves price history for display, as JSON points or as a
// rendered HTML line chart.
package chart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/normalize"
	"ihsan/internal/pkg/symbol"
)

var (
	ErrNoTicker      = errors.New("chart: no ticker provided")
	ErrInvalidPeriod = errors.New("chart: unsupported period")
	ErrNoHistory     = errors.New("chart: no data available")
)

const DefaultPeriod = "1y"

const (
	intradayLayout = "2006-01-02 15:04"
	dailyLayout    = "2006-01-02"
)

var periodIntervals = map[string]string{
	"1d":  "15m",
	"5d":  "15m",
	"1mo": "1d",
	"6mo": "1d",
	"1y":  "1d",
	"5y":  "1d",
	"max": "1d",
}

// Periods lists the accepted period tokens, shortest first.
var Periods = []string{"1d", "5d", "1mo", "6mo", "1y", "5y", "max"}

type Point struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
}

type History struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Period        string  `json:"period"`
	CurrentPrice  float64 `json:"current_price"`
	ChangePercent float64 `json:"change_p"`
	Currency      string  `json:"currency"`
	Points        []Point `json:"history"`
}

type Service struct {
	provider market.Provider
}

func NewService(provider market.Provider) *Service {
	return &Service{provider: provider}
}

// History fetches the bars of period for ticker. Intraday periods use 15
// minute bars. The quote header falls back to the last bar when the profile
// is unavailable.
func (s *Service) History(ctx context.Context, ticker, period string) (History, error) {
	ticker = symbol.Normalize(ticker)
	if ticker == "" {
		return History{}, ErrNoTicker
	}
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = DefaultPeriod
	}
	interval, ok := periodIntervals[period]
	if !ok {
		return History{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	candles, err := s.provider.FetchHistory(ctx, ticker, market.HistoryRange{Period: period, Interval: interval})
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return History{}, fmt.Errorf("%w: %s", ErrNoHistory, ticker)
		}
		return History{}, fmt.Errorf("history %s: %w", ticker, err)
	}
	layout := dailyLayout
	if interval != "1d" {
		layout = intradayLayout
	}
	points := make([]Point, 0, len(candles))
	for _, c := range candles {
		if c.Close <= 0 {
			continue
		}
		points = append(points, Point{
			Date:   c.Time.Format(layout),
			Price:  normalize.Round2(c.Close),
			Volume: int64(c.Volume),
			Open:   normalize.Round2(c.Open),
			High:   normalize.Round2(c.High),
			Low:    normalize.Round2(c.Low),
		})
	}
	if len(points) == 0 {
		return History{}, fmt.Errorf("%w: %s", ErrNoHistory, ticker)
	}

	h := History{Ticker: ticker, Name: ticker, Period: period, Currency: "USD", Points: points}
	raw, err := s.provider.FetchProfile(ctx, ticker)
	if err != nil {
		if ctx.Err() != nil {
			return History{}, ctx.Err()
		}
		logger.Debugf("chart: %s profile unavailable: %v", ticker, err)
	}
	if name := strings.TrimSpace(raw.LongName); name != "" {
		h.Name = name
	}
	if cur := strings.TrimSpace(raw.Currency); cur != "" {
		h.Currency = strings.ToUpper(cur)
	}
	h.CurrentPrice = firstPositive(raw.CurrentPrice, raw.RegularMarketPrice)
	if h.CurrentPrice == 0 {
		h.CurrentPrice = points[len(points)-1].Price
	}
	if prev := firstPositive(raw.PreviousClose); prev > 0 {
		h.ChangePercent = normalize.Round2((h.CurrentPrice - prev) / prev * 100)
	}
	return h, nil
}

func firstPositive(ps ...*float64) float64 {
	for _, p := range ps {
		if p != nil && *p > 0 {
			return *p
		}
	}
	return 0
}

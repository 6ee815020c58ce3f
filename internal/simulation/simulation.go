// Package simulation replays a monthly dollar-cost-averaging plan over
// historical prices.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/pkg/symbol"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const StrategyMonthlyDCA = "monthly DCA"

var (
	ErrNoTickers     = errors.New("simulation: no ticker provided")
	ErrInvalidAmount = errors.New("simulation: monthly amount must be positive")
	ErrInvalidYear   = errors.New("simulation: start year out of range")
)

var hundred = decimal.NewFromInt(100)

type Request struct {
	Tickers       []string
	MonthlyAmount decimal.Decimal
	StartYear     int
}

type Breakdown struct {
	Ticker      string  `json:"ticker"`
	Shares      float64 `json:"shares"`
	Invested    float64 `json:"invested"`
	Value       float64 `json:"value"`
	Dividends   float64 `json:"dividends"`
	GainPercent float64 `json:"gain_percent"`
}

type Result struct {
	Strategy          string      `json:"strategy"`
	StartYear         int         `json:"start_year"`
	MonthlyInvestment float64     `json:"monthly_investment"`
	TotalInvested     float64     `json:"total_invested"`
	FinalValue        float64     `json:"final_value"`
	Dividends         float64     `json:"dividends"`
	Purification      float64     `json:"purification"`
	TotalGain         float64     `json:"total_gain"`
	TotalReturn       float64     `json:"total_return"`
	Breakdown         []Breakdown `json:"breakdown"`
	Skipped           []string    `json:"skipped,omitempty"`
}

type Config struct {
	PurificationRate float64
	Concurrency      int
}

type Simulator struct {
	provider market.Provider
	rate     decimal.Decimal
	limit    int
	now      func() time.Time
}

func NewSimulator(provider market.Provider, cfg Config) *Simulator {
	rate := cfg.PurificationRate
	if rate <= 0 {
		rate = 0.05
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = 4
	}
	return &Simulator{provider: provider, rate: decimal.NewFromFloat(rate), limit: limit, now: time.Now}
}

func (s *Simulator) validate(req Request) ([]string, error) {
	tickers := symbol.NormalizeList(req.Tickers)
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}
	if !req.MonthlyAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.StartYear < 1970 || req.StartYear > s.now().Year() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, req.StartYear)
	}
	return tickers, nil
}

// position is the outcome of replaying the plan on one ticker.
type position struct {
	ticker    string
	ok        bool
	shares    decimal.Decimal
	invested  decimal.Decimal
	value     decimal.Decimal
	dividends decimal.Decimal
}

// Run splits the monthly amount evenly across the tickers and buys each at
// its month-end close from 1 January of the start year. Tickers without
// history are skipped and listed.
func (s *Simulator) Run(ctx context.Context, req Request) (Result, error) {
	tickers, err := s.validate(req)
	if err != nil {
		return Result{}, err
	}
	perTicker := req.MonthlyAmount.Div(decimal.NewFromInt(int64(len(tickers))))
	start := time.Date(req.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)

	positions := make([]position, len(tickers))
	var eg errgroup.Group
	eg.SetLimit(s.limit)
	for i, ticker := range tickers {
		eg.Go(func() error {
			candles, err := s.provider.FetchHistory(ctx, ticker, market.HistoryRange{Start: start, End: s.now(), Interval: "1d"})
			if err != nil {
				logger.Warnf("simulation: %s skipped: %v", ticker, err)
				positions[i] = position{ticker: ticker}
				return nil
			}
			positions[i] = replay(ticker, candles, perTicker)
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		Strategy:          StrategyMonthlyDCA,
		StartYear:         req.StartYear,
		MonthlyInvestment: money(req.MonthlyAmount),
		Breakdown:         make([]Breakdown, 0, len(positions)),
	}
	invested, value, dividends := decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range positions {
		if !p.ok {
			res.Skipped = append(res.Skipped, p.ticker)
			continue
		}
		invested = invested.Add(p.invested)
		value = value.Add(p.value)
		dividends = dividends.Add(p.dividends)
		res.Breakdown = append(res.Breakdown, Breakdown{
			Ticker:      p.ticker,
			Shares:      money(p.shares),
			Invested:    money(p.invested),
			Value:       money(p.value),
			Dividends:   money(p.dividends),
			GainPercent: money(percent(p.value.Sub(p.invested), p.invested)),
		})
	}
	gain := value.Add(dividends).Sub(invested)
	res.TotalInvested = money(invested)
	res.FinalValue = money(value)
	res.Dividends = money(dividends)
	res.Purification = money(dividends.Mul(s.rate))
	res.TotalGain = money(gain)
	res.TotalReturn = money(percent(gain, invested))
	return res, nil
}

// replay walks the bars in order. A dividend is paid on the shares held
// before that bar's purchase; a purchase happens on the last bar of each
// calendar month.
func replay(ticker string, candles []market.Candle, amount decimal.Decimal) position {
	bars := make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Close > 0 {
			bars = append(bars, c)
		}
	}
	if len(bars) == 0 {
		return position{ticker: ticker}
	}
	p := position{ticker: ticker, ok: true}
	for i, c := range bars {
		if c.Dividend > 0 {
			p.dividends = p.dividends.Add(decimal.NewFromFloat(c.Dividend).Mul(p.shares))
		}
		if i == len(bars)-1 || !sameMonth(c.Time, bars[i+1].Time) {
			p.shares = p.shares.Add(amount.Div(decimal.NewFromFloat(c.Close)))
			p.invested = p.invested.Add(amount)
		}
	}
	last := decimal.NewFromFloat(bars[len(bars)-1].Close)
	p.value = p.shares.Mul(last)
	return p
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

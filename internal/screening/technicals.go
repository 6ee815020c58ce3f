package screening

import (
	"context"
	"math"

	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/normalize"

	"github.com/markcheno/go-talib"
)

const (
	rsiPeriod     = 14
	rsiMinCloses  = 16
	neutralRSI    = 50
	neutralRange  = 50
	technicalSpan = "3mo"
)

// technicals computes RSI-14 over three months of daily closes and the
// price position inside the 52-week range. Any gap falls back to neutral.
func (s *Service) technicals(ctx context.Context, p normalize.FinancialProfile) Technicals {
	t := Technicals{
		RSI:          neutralRSI,
		Position52w:  rangePosition(p),
		CurrentPrice: p.Price,
	}
	if !s.opts.Technicals {
		return t
	}
	candles, err := s.provider.FetchHistory(ctx, p.Ticker, market.HistoryRange{Period: technicalSpan, Interval: "1d"})
	if err != nil {
		logger.Debugf("screening %s: history unavailable: %v", p.Ticker, err)
		return t
	}
	t.RSI = RSI(market.Closes(candles))
	return t
}

// RSI is the last Wilder RSI-14 value of closes, or 50 when there are too few
// closes to compute one.
func RSI(closes []float64) float64 {
	if len(closes) < rsiMinCloses {
		return neutralRSI
	}
	series := talib.Rsi(closes, rsiPeriod)
	if len(series) == 0 {
		return neutralRSI
	}
	last := series[len(series)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return neutralRSI
	}
	return normalize.Round2(last)
}

func rangePosition(p normalize.FinancialProfile) float64 {
	hi, lo := p.FiftyTwoWeekHigh, p.FiftyTwoWeekLow
	if !hi.Valid || !lo.Valid || p.Price <= 0 || hi.Value <= lo.Value {
		return neutralRange
	}
	pos := (p.Price - lo.Value) / (hi.Value - lo.Value) * 100
	return math.Round(math.Max(0, math.Min(100, pos)))
}

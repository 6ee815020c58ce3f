package market

import "time"

// Candle is one bar of daily (or intraday) price history.
type Candle struct {
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Dividend float64   `json:"dividend,omitempty"` // per-share dividend paid on this bar
}

// Closes extracts close prices, skipping bars without a positive close.
func Closes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		if c.Close > 0 {
			out = append(out, c.Close)
		}
	}
	return out
}

// HistoryRange selects the span and bar size of a history request. Either
// Period (provider range token such as "3mo") or Start is set.
type HistoryRange struct {
	Period   string
	Start    time.Time
	End      time.Time
	Interval string
}

func (r HistoryRange) WithDefaults() HistoryRange {
	if r.Interval == "" {
		r.Interval = "1d"
	}
	if r.Period == "" && r.Start.IsZero() {
		r.Period = "1mo"
	}
	return r
}

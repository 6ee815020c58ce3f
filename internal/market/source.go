package market

import (
	"context"
	"errors"
)

// ErrNotFound marks a symbol the provider could not resolve right now. It is
// not proof that the symbol does not exist.
var ErrNotFound = errors.New("market: symbol not found")

// Provider is the narrow view of a market-data provider used by the screening
// core and the calculators.
type Provider interface {
	FetchProfile(ctx context.Context, symbol string) (RawRecord, error)

	FetchHistory(ctx context.Context, symbol string, r HistoryRange) ([]Candle, error)

	FetchFund(ctx context.Context, symbol string) (FundProfile, error)
}

// QuoteSource is an optional fast quote consulted before the profile's own
// price fields.
type QuoteSource interface {
	LivePrice(ctx context.Context, symbol string) (float64, error)

	Supports(symbol string) bool
}

// Holding is one constituent of a fund.
type Holding struct {
	Symbol string  `json:"symbol,omitempty"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"` // percentage of the fund
}

// SectorWeight is a fund's exposure to one sector.
type SectorWeight struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"` // percentage of the fund
}

// FundProfile is the read-only fund breakdown used by the ETF scan.
type FundProfile struct {
	Symbol      string
	Name        string
	Description string
	Family      string
	Holdings    []Holding
	Sectors     []SectorWeight
}

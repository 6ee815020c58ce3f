// Package etf aggregates a fund's holdings and sector exposure for display.
package etf

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ihsan/internal/market"
	"ihsan/internal/normalize"
	"ihsan/internal/pkg/symbol"
	"ihsan/internal/pkg/text"
)

var ErrNoFundData = errors.New("etf: no fund data")

const (
	maxHoldings    = 10
	maxDescription = 2000
)

type Report struct {
	Ticker      string                `json:"ticker"`
	Name        string                `json:"name"`
	Family      string                `json:"family,omitempty"`
	Description string                `json:"description"`
	Holdings    []market.Holding      `json:"holdings"`
	Sectors     []market.SectorWeight `json:"sectors"`
}

type Scanner struct {
	provider market.Provider
}

func NewScanner(provider market.Provider) *Scanner {
	return &Scanner{provider: provider}
}

// Scan returns the top holdings by weight and the sector breakdown sorted
// from the largest exposure down. A fund reporting neither is ErrNoFundData.
func (s *Scanner) Scan(ctx context.Context, ticker string) (Report, error) {
	ticker = symbol.Normalize(ticker)
	if ticker == "" {
		return Report{}, fmt.Errorf("%w: empty ticker", ErrNoFundData)
	}
	fund, err := s.provider.FetchFund(ctx, ticker)
	if err != nil {
		return Report{}, fmt.Errorf("etf scan %s: %w", ticker, err)
	}
	holdings := make([]market.Holding, 0, len(fund.Holdings))
	for _, h := range fund.Holdings {
		if h.Weight <= 0 {
			continue
		}
		h.Weight = normalize.Round2(h.Weight)
		holdings = append(holdings, h)
	}
	sectors := make([]market.SectorWeight, 0, len(fund.Sectors))
	for _, sw := range fund.Sectors {
		if sw.Weight <= 0 {
			continue
		}
		sw.Weight = normalize.Round2(sw.Weight)
		sectors = append(sectors, sw)
	}
	if len(holdings) == 0 && len(sectors) == 0 {
		return Report{}, fmt.Errorf("%w: %s", ErrNoFundData, ticker)
	}
	sort.SliceStable(holdings, func(i, j int) bool { return holdings[i].Weight > holdings[j].Weight })
	if len(holdings) > maxHoldings {
		holdings = holdings[:maxHoldings]
	}
	sort.SliceStable(sectors, func(i, j int) bool { return sectors[i].Weight > sectors[j].Weight })

	name := fund.Name
	if name == "" {
		name = ticker
	}
	return Report{
		Ticker:      ticker,
		Name:        name,
		Family:      fund.Family,
		Description: text.Snippet(fund.Description, maxDescription),
		Holdings:    holdings,
		Sectors:     sectors,
	}, nil
}

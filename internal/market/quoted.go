package market

import (
	"context"
	"errors"
	"fmt"

	"ihsan/internal/logger"
)

// QuotedProvider decorates a Provider so that FetchProfile fills LivePrice
// from a QuoteSource for the symbols that source supports. A failing quote
// source never fails the profile.
type QuotedProvider struct {
	Provider
	quotes QuoteSource
}

func WithQuoteSource(p Provider, q QuoteSource) Provider {
	if q == nil {
		return p
	}
	return &QuotedProvider{Provider: p, quotes: q}
}

func (q *QuotedProvider) FetchProfile(ctx context.Context, symbol string) (RawRecord, error) {
	rec, err := q.Provider.FetchProfile(ctx, symbol)
	if err != nil {
		return rec, err
	}
	if rec.LivePrice != nil || !q.quotes.Supports(symbol) {
		return rec, nil
	}
	price, err := q.quotes.LivePrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return RawRecord{}, fmt.Errorf("live quote %s: %w", symbol, err)
		}
		logger.Debugf("live quote for %s unavailable: %v", symbol, err)
		return rec, nil
	}
	if price > 0 {
		rec.LivePrice = Float(price)
	}
	return rec, nil
}

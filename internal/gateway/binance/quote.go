// Package binance serves fast spot quotes for crypto tickers from Binance.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ihsan/internal/market"
	symbolpkg "ihsan/internal/pkg/symbol"

	gobinance "github.com/adshao/go-binance/v2"
)

// QuoteSource implements market.QuoteSource for USD-quoted crypto tickers,
// priced from the matching USDT spot pair.
type QuoteSource struct {
	cfg    Config
	client *gobinance.Client
}

var _ market.QuoteSource = (*QuoteSource)(nil)

func New(cfg Config) *QuoteSource {
	final := cfg.withDefaults()
	client := gobinance.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &QuoteSource{cfg: final, client: client}
}

func (s *QuoteSource) Supports(symbol string) bool {
	return symbolpkg.BinancePair(symbol) != ""
}

func (s *QuoteSource) LivePrice(ctx context.Context, symbol string) (float64, error) {
	pair := symbolpkg.BinancePair(symbol)
	if pair == "" {
		return 0, fmt.Errorf("binance: unsupported symbol %s", symbol)
	}
	prices, err := s.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance price %s: %w", pair, err)
	}
	for _, p := range prices {
		if p == nil || !strings.EqualFold(p.Symbol, pair) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Price), 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("binance price %s: invalid value %q", pair, p.Price)
		}
		return v, nil
	}
	return 0, fmt.Errorf("binance price %s: %w", pair, market.ErrNotFound)
}

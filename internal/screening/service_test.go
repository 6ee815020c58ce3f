package screening

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ihsan/internal/compliance"
	"ihsan/internal/market"
	"ihsan/internal/normalize"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchProfile(ctx context.Context, symbol string) (market.RawRecord, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(market.RawRecord), args.Error(1)
}

func (m *mockProvider) FetchHistory(ctx context.Context, symbol string, r market.HistoryRange) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *mockProvider) FetchFund(ctx context.Context, symbol string) (market.FundProfile, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(market.FundProfile), args.Error(1)
}

func f(v float64) *float64 { return market.Float(v) }

func equityRecord(sym string) market.RawRecord {
	return market.RawRecord{
		Symbol:             sym,
		QuoteType:          "EQUITY",
		LongName:           sym + " Inc.",
		Sector:             "Technology",
		Industry:           "Software",
		RegularMarketPrice: f(100),
		MarketCap:          f(1000),
		FiftyTwoWeekHigh:   f(120),
		FiftyTwoWeekLow:    f(80),
		BalanceSheet: &market.BalanceSheet{AsOf: "2023-12-31", Lines: map[string]float64{
			market.LineTotalDebt:              100,
			market.LineCashAndCashEquivalents: 50,
		}},
	}
}

func newTestService(p market.Provider, opts Options) (*Service, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	return NewService(p, Static(compliance.New(compliance.DefaultRules())), opts, m), m
}

func tickersOf(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Ticker)
	}
	return out
}

func TestParseTickers(t *testing.T) {
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, ParseTickers("aaa, bbb,,CCC"))
	assert.Equal(t, []string{"AAPL"}, ParseTickers(" aapl ,AAPL"))
	assert.Empty(t, ParseTickers(" , "))
}

func TestScreenOne(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "AAPL").Return(equityRecord("AAPL"), nil)
	svc, _ := newTestService(p, Options{})

	res, err := svc.ScreenOne(context.Background(), " aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.Equal(t, "AAPL Inc.", res.Name)
	assert.Equal(t, market.AssetEquity, res.Type)
	assert.True(t, res.IsHalal)
	assert.Equal(t, 86, res.ShariaScore)
	assert.Equal(t, compliance.BranchAAOIFI, res.Branch)
	assert.InDelta(t, 10.0, res.Ratios.Debt, 1e-9)
	assert.Equal(t, 100.0, res.Financials.Price)
	assert.Equal(t, Technicals{RSI: 50, Position52w: 50, CurrentPrice: 100}, res.Technicals)
	p.AssertNotCalled(t, "FetchHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestScreenOneUnresolvable(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "GONE").Return(market.RawRecord{}, nil)
	svc, _ := newTestService(p, Options{})

	_, err := svc.ScreenOne(context.Background(), "GONE")
	assert.ErrorIs(t, err, normalize.ErrUnresolvable)

	_, err = svc.ScreenOne(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoTickers)
}

func TestScreenKeepsOrderAndOmitsFailures(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "AAA").Return(equityRecord("AAA"), nil)
	p.On("FetchProfile", mock.Anything, "BAD").Return(market.RawRecord{}, market.ErrNotFound)
	p.On("FetchProfile", mock.Anything, "CCC").Return(equityRecord("CCC"), nil)
	p.On("FetchProfile", mock.Anything, "EMPTY").Return(market.RawRecord{}, nil)
	svc, m := newTestService(p, Options{Concurrency: 2})

	results := svc.Screen(context.Background(), []string{"AAA", "BAD", "ccc", "EMPTY", "aaa"})
	assert.Equal(t, []string{"AAA", "CCC"}, tickersOf(results))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.symbols.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.symbols.WithLabelValues(OutcomeCompliant)))
}

func TestScreenAllFailuresYieldsEmpty(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, mock.Anything).Return(market.RawRecord{}, market.ErrNotFound)
	svc, _ := newTestService(p, Options{})

	results := svc.Screen(context.Background(), []string{"X", "Y"})
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestScreenContainsPanics(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "BOOM").Panic("decoder exploded")
	p.On("FetchProfile", mock.Anything, "OK").Return(equityRecord("OK"), nil)
	svc, m := newTestService(p, Options{})

	results := svc.Screen(context.Background(), []string{"BOOM", "OK"})
	assert.Equal(t, []string{"OK"}, tickersOf(results))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.symbols.WithLabelValues(OutcomePanic)))
}

func TestScreenPerSymbolTimeout(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "SLOW").Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(market.RawRecord{}, context.DeadlineExceeded)
	p.On("FetchProfile", mock.Anything, "FAST").Return(equityRecord("FAST"), nil)
	svc, m := newTestService(p, Options{SymbolTimeout: 50 * time.Millisecond})

	results := svc.Screen(context.Background(), []string{"SLOW", "FAST"})
	assert.Equal(t, []string{"FAST"}, tickersOf(results))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.symbols.WithLabelValues(OutcomeTimeout)))
}

func TestScreenCancelledBatch(t *testing.T) {
	p := &mockProvider{}
	svc, _ := newTestService(p, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := svc.Screen(ctx, []string{"AAA", "BBB"})
	assert.Empty(t, results)
	p.AssertNotCalled(t, "FetchProfile", mock.Anything, mock.Anything)
}

func TestScreenCancellationDropsInFlight(t *testing.T) {
	p := &mockProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	p.On("FetchProfile", mock.Anything, "AAA").Run(func(mock.Arguments) { cancel() }).Return(equityRecord("AAA"), nil)
	svc, _ := newTestService(p, Options{Concurrency: 1})

	results := svc.Screen(ctx, []string{"AAA"})
	assert.Empty(t, results)
}

func TestScreenProgress(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "AAA").Return(equityRecord("AAA"), nil)
	p.On("FetchProfile", mock.Anything, "BAD").Return(market.RawRecord{}, market.ErrNotFound)
	svc, _ := newTestService(p, Options{})

	var done, failed atomic.Int32
	svc.Screen(context.Background(), []string{"AAA", "BAD"}, WithProgress(func(_ string, err error) {
		done.Add(1)
		if err != nil {
			failed.Add(1)
		}
	}))
	assert.Equal(t, int32(2), done.Load())
	assert.Equal(t, int32(1), failed.Load())
}

func TestScreenList(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "AAA").Return(equityRecord("AAA"), nil)
	svc, _ := newTestService(p, Options{})

	_, err := svc.ScreenList(context.Background(), " ,, ")
	assert.ErrorIs(t, err, ErrNoTickers)

	results, err := svc.ScreenList(context.Background(), "aaa")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTechnicalsFromHistory(t *testing.T) {
	closes := make([]market.Candle, 30)
	for i := range closes {
		closes[i] = market.Candle{Close: 100 + float64(i)}
	}
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "UP").Return(equityRecord("UP"), nil)
	p.On("FetchHistory", mock.Anything, "UP", market.HistoryRange{Period: "3mo", Interval: "1d"}).Return(closes, nil)
	p.On("FetchProfile", mock.Anything, "NOHIST").Return(equityRecord("NOHIST"), nil)
	p.On("FetchHistory", mock.Anything, "NOHIST", mock.Anything).Return(nil, market.ErrNotFound)
	svc, _ := newTestService(p, Options{Technicals: true})

	up, err := svc.ScreenOne(context.Background(), "UP")
	require.NoError(t, err)
	assert.Equal(t, 100.0, up.Technicals.RSI)

	flat, err := svc.ScreenOne(context.Background(), "NOHIST")
	require.NoError(t, err)
	assert.Equal(t, 50.0, flat.Technicals.RSI)
}

func TestRSIShortSeries(t *testing.T) {
	assert.Equal(t, 50.0, RSI([]float64{1, 2, 3}))
	assert.Equal(t, 50.0, RSI(nil))
}

func TestRangePosition(t *testing.T) {
	p := normalize.FinancialProfile{Price: 130, FiftyTwoWeekHigh: normalize.Some(120), FiftyTwoWeekLow: normalize.Some(80)}
	assert.Equal(t, 100.0, rangePosition(p))
	p.Price = 90
	assert.Equal(t, 25.0, rangePosition(p))
	p.FiftyTwoWeekLow = normalize.None()
	assert.Equal(t, 50.0, rangePosition(p))
}

type swappable struct {
	c atomic.Pointer[compliance.Classifier]
}

func (s *swappable) Classifier() *compliance.Classifier { return s.c.Load() }

func TestScreenUsesCurrentRules(t *testing.T) {
	p := &mockProvider{}
	p.On("FetchProfile", mock.Anything, "AAA").Return(equityRecord("AAA"), nil)
	src := &swappable{}
	src.c.Store(compliance.New(compliance.DefaultRules()))
	svc := NewService(p, src, Options{}, nil)

	res, err := svc.ScreenOne(context.Background(), "AAA")
	require.NoError(t, err)
	assert.True(t, res.IsHalal)

	strict := compliance.DefaultRules()
	strict.RatioThreshold = 5
	src.c.Store(compliance.New(strict))
	res, err = svc.ScreenOne(context.Background(), "AAA")
	require.NoError(t, err)
	assert.False(t, res.IsHalal)
}

package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchProfile(ctx context.Context, symbol string) (RawRecord, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(RawRecord), args.Error(1)
}

func (m *mockProvider) FetchHistory(ctx context.Context, symbol string, r HistoryRange) ([]Candle, error) {
	args := m.Called(ctx, symbol, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Candle), args.Error(1)
}

func (m *mockProvider) FetchFund(ctx context.Context, symbol string) (FundProfile, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(FundProfile), args.Error(1)
}

type stubQuotes struct {
	price float64
	err   error
}

func (s stubQuotes) LivePrice(context.Context, string) (float64, error) { return s.price, s.err }
func (s stubQuotes) Supports(symbol string) bool                        { return symbol == "BTC-USD" }

func TestParseAssetClass(t *testing.T) {
	cases := map[string]AssetClass{
		"":               AssetEquity,
		"equity":         AssetEquity,
		"ETF":            AssetETF,
		"CRYPTOCURRENCY": AssetCrypto,
		"INDEX":          AssetIndex,
		"MUTUALFUND":     AssetOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseAssetClass(in), in)
	}
	assert.True(t, AssetETF.HasBalanceSheetConcept())
	assert.False(t, AssetCrypto.HasBalanceSheetConcept())
}

func TestRawRecordIsEmpty(t *testing.T) {
	assert.True(t, RawRecord{Symbol: "ZZZ"}.IsEmpty())
	assert.False(t, RawRecord{Symbol: "AAA", ShortName: "Aaa Inc"}.IsEmpty())
	assert.False(t, RawRecord{Symbol: "AAA", PreviousClose: Float(10)}.IsEmpty())
}

func TestBalanceSheetLine(t *testing.T) {
	var nilSheet *BalanceSheet
	_, ok := nilSheet.Line(LineTotalDebt)
	assert.False(t, ok)

	bs := &BalanceSheet{Lines: map[string]float64{LineTotalDebt: 12}}
	v, ok := bs.Line(LineTotalDebt)
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)
}

func TestQuotedProviderFillsLivePrice(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchProfile", mock.Anything, "BTC-USD").Return(RawRecord{Symbol: "BTC-USD", QuoteType: "CRYPTOCURRENCY"}, nil)
	p.On("FetchProfile", mock.Anything, "AAPL").Return(RawRecord{Symbol: "AAPL", CurrentPrice: Float(190)}, nil)

	qp := WithQuoteSource(p, stubQuotes{price: 64000})
	rec, err := qp.FetchProfile(context.Background(), "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, rec.LivePrice)
	assert.Equal(t, 64000.0, *rec.LivePrice)

	rec, err = qp.FetchProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, rec.LivePrice)
}

func TestQuotedProviderIgnoresQuoteFailure(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchProfile", mock.Anything, "BTC-USD").Return(RawRecord{Symbol: "BTC-USD"}, nil)

	qp := WithQuoteSource(p, stubQuotes{err: errors.New("boom")})
	rec, err := qp.FetchProfile(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Nil(t, rec.LivePrice)
}

func TestWithQuoteSourceNil(t *testing.T) {
	p := new(mockProvider)
	assert.Same(t, p, WithQuoteSource(p, nil).(*mockProvider))
}

func TestCloses(t *testing.T) {
	got := Closes([]Candle{{Close: 1}, {Close: 0}, {Close: 3}})
	assert.Equal(t, []float64{1, 3}, got)
}

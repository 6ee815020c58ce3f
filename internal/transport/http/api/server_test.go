package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ihsan/internal/chart"
	"ihsan/internal/etf"
	"ihsan/internal/market"
	"ihsan/internal/portfolio"
	"ihsan/internal/screening"
	"ihsan/internal/simulation"
	"ihsan/internal/zakat"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreener struct {
	got []string
}

func (f *fakeScreener) Screen(_ context.Context, tickers []string, _ ...screening.BatchOption) []screening.Result {
	f.got = tickers
	var out []screening.Result
	for _, t := range tickers {
		if t == "ZZZZ" {
			continue
		}
		out = append(out, screening.Result{Ticker: t, IsHalal: true, ShariaScore: 86})
	}
	return out
}

type fakeETF struct{}

func (fakeETF) Scan(_ context.Context, ticker string) (etf.Report, error) {
	if ticker != "SPUS" {
		return etf.Report{}, fmt.Errorf("etf scan %s: %w", ticker, market.ErrNotFound)
	}
	return etf.Report{Ticker: "SPUS", Holdings: []market.Holding{{Name: "Nvidia", Weight: 12}}}, nil
}

type fakeZakat struct {
	got zakat.Assets
}

func (f *fakeZakat) Calculate(_ context.Context, a zakat.Assets) zakat.Result {
	f.got = a
	return zakat.Compute(a, zakat.MetalPrices{GoldGram: decimal.NewFromInt(136), SilverGram: decimal.RequireFromString("2.82"), Source: zakat.SourceBackup})
}

type fakePortfolio struct {
	got []portfolio.Position
}

func (f *fakePortfolio) Analyze(_ context.Context, ps []portfolio.Position) portfolio.Report {
	f.got = ps
	return portfolio.Report{Assets: []portfolio.Line{}}
}

type fakeSimulator struct {
	got simulation.Request
	err error
}

func (f *fakeSimulator) Run(_ context.Context, req simulation.Request) (simulation.Result, error) {
	f.got = req
	if f.err != nil {
		return simulation.Result{}, f.err
	}
	if len(req.Tickers) == 0 {
		return simulation.Result{}, simulation.ErrNoTickers
	}
	return simulation.Result{Strategy: simulation.StrategyMonthlyDCA, StartYear: req.StartYear}, nil
}

type fakeCharts struct{}

func (fakeCharts) History(_ context.Context, ticker, period string) (chart.History, error) {
	switch {
	case ticker == "":
		return chart.History{}, chart.ErrNoTicker
	case period == "3y":
		return chart.History{}, chart.ErrInvalidPeriod
	case ticker == "NONE":
		return chart.History{}, chart.ErrNoHistory
	}
	return chart.History{Ticker: ticker, Period: period, Points: []chart.Point{{Date: "2024-01-02", Price: 1}}}, nil
}

func (fakeCharts) Render(_ context.Context, ticker, _ string, w io.Writer) error {
	if ticker == "" {
		return chart.ErrNoTicker
	}
	_, err := io.WriteString(w, "<html>"+ticker+"</html>")
	return err
}

type fixture struct {
	srv       *Server
	screener  *fakeScreener
	zakat     *fakeZakat
	portfolio *fakePortfolio
	simulator *fakeSimulator
}

func newFixture() *fixture {
	f := &fixture{
		screener:  &fakeScreener{},
		zakat:     &fakeZakat{},
		portfolio: &fakePortfolio{},
		simulator: &fakeSimulator{},
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "ihsan_test_total", Help: "test"}))
	f.srv = NewServer(ServerConfig{
		Prefix:    "api",
		Gatherer:  reg,
		Screener:  f.screener,
		ETF:       fakeETF{},
		Zakat:     f.zakat,
		Portfolio: f.portfolio,
		Simulator: f.simulator,
		Charts:    fakeCharts{},
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(headerRequestID, "abc-123")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(headerRequestID))
}

func TestCORS(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodOptions, "/api/screening/analyze", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(), "ihsan_test_total")
}

func TestScreeningAnalyze(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/screening/analyze", `{"tickers":"aapl, msft ZZZZ,aapl"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"AAPL", "MSFT", "ZZZZ"}, f.screener.got)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "AAPL", results[0].(map[string]any)["ticker"])
}

func TestScreeningAnalyzeAcceptsList(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/screening/analyze", `{"tickers":["btc-usd"," spus "]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"BTC-USD", "SPUS"}, f.screener.got)
}

func TestScreeningAnalyzeEmpty(t *testing.T) {
	f := newFixture()
	for _, body := range []string{`{"tickers":""}`, `{"tickers":" , "}`, `{}`} {
		w := f.do(http.MethodPost, "/api/screening/analyze", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "No ticker provided", decode(t, w)["error"], body)
	}
	w := f.do(http.MethodPost, "/api/screening/analyze", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreeningAnalyzeAllFailing(t *testing.T) {
	w := newFixture().do(http.MethodPost, "/api/screening/analyze", `{"tickers":"ZZZZ"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["results"])
}

func TestETFScan(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/screening/etf-scan", `{"ticker":"spus"}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, "SPUS", result["ticker"])

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/screening/etf-scan", `{"ticker":"AAPL"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/screening/etf-scan", `{"ticker":" "}`).Code)
}

func TestZakatLooseNumbers(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/zakat/calculate", `{"cash":"1000.10","savings":500,"debts":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1000.1", f.zakat.got.Cash.String())
	assert.Equal(t, "500", f.zakat.got.Savings.String())
	assert.True(t, f.zakat.got.Debts.IsZero())

	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t, 1500.1, result["net_wealth"])
	assert.Contains(t, result, "nisab_data")
}

func TestPortfolio(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/portfolio/analyze", `{"assets":[{"ticker":"aapl","qty":"10","avg_price":150.5,"type":"sukuk"},"junk"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.portfolio.got, 1)
	got := f.portfolio.got[0]
	assert.Equal(t, "aapl", got.Ticker)
	assert.Equal(t, "10", got.Quantity.String())
	assert.Equal(t, "150.5", got.AvgPrice.String())
	assert.Equal(t, portfolio.AssetSukuk, got.Type)

	w = f.do(http.MethodPost, "/api/portfolio/analyze", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.portfolio.got)
}

func TestSimulationDefaults(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/simulation/calculate", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"AAPL"}, f.simulator.got.Tickers)
	assert.Equal(t, "100", f.simulator.got.MonthlyAmount.String())
	assert.Equal(t, 2018, f.simulator.got.StartYear)

	f.do(http.MethodPost, "/api/simulation/calculate", `{"tickers":"KO, PEP","monthly_amount":"250","start_year":"2020"}`)
	assert.Equal(t, []string{"KO", "PEP"}, f.simulator.got.Tickers)
	assert.Equal(t, "250", f.simulator.got.MonthlyAmount.String())
	assert.Equal(t, 2020, f.simulator.got.StartYear)
}

func TestSimulationErrors(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/simulation/calculate", `{"tickers":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	f.simulator.err = fmt.Errorf("%w: 2999", simulation.ErrInvalidYear)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/simulation/calculate", `{"start_year":2999}`).Code)

	f.simulator.err = context.DeadlineExceeded
	assert.Equal(t, http.StatusGatewayTimeout, f.do(http.MethodPost, "/api/simulation/calculate", `{}`).Code)
}

func TestChartHistory(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/charting/history", `{"ticker":"AAPL","period":"1mo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Len(t, body["history"], 1)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/charting/history", `{"period":"1y"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/charting/history", `{"ticker":"AAPL","period":"3y"}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/charting/history", `{"ticker":"NONE"}`).Code)
}

func TestChartRender(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/charting/render?ticker=AAPL&period=1y", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "<html>AAPL</html>", w.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/charting/render", "").Code)
}

func TestUnconfiguredServices(t *testing.T) {
	srv := NewServer(ServerConfig{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/zakat/calculate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("x: %w", etf.ErrNoFundData)))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.New("upstream")))
}

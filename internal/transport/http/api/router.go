package apihttp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"ihsan/internal/chart"
	"ihsan/internal/etf"
	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/pkg/maputil"
	"ihsan/internal/pkg/symbol"
	"ihsan/internal/portfolio"
	"ihsan/internal/screening"
	"ihsan/internal/simulation"
	"ihsan/internal/zakat"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Screener interface {
	Screen(ctx context.Context, tickers []string, opts ...screening.BatchOption) []screening.Result
}

type ETFScanner interface {
	Scan(ctx context.Context, ticker string) (etf.Report, error)
}

type ZakatCalculator interface {
	Calculate(ctx context.Context, a zakat.Assets) zakat.Result
}

type PortfolioAnalyzer interface {
	Analyze(ctx context.Context, positions []portfolio.Position) portfolio.Report
}

type Simulator interface {
	Run(ctx context.Context, req simulation.Request) (simulation.Result, error)
}

type Charter interface {
	History(ctx context.Context, ticker, period string) (chart.History, error)
	Render(ctx context.Context, ticker, period string, w io.Writer) error
}

// Simulation request defaults for omitted fields.
const (
	defaultSimTickers   = "AAPL"
	defaultSimMonthly   = 100
	defaultSimStartYear = 2018
)

// Router holds the API handlers.
type Router struct {
	screener  Screener
	etf       ETFScanner
	zakat     ZakatCalculator
	portfolio PortfolioAnalyzer
	simulator Simulator
	charts    Charter
}

func NewRouter(cfg ServerConfig) *Router {
	return &Router{
		screener:  cfg.Screener,
		etf:       cfg.ETF,
		zakat:     cfg.Zakat,
		portfolio: cfg.Portfolio,
		simulator: cfg.Simulator,
		charts:    cfg.Charts,
	}
}

// Register mounts the API under group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/health", r.handleHealth)
	group.POST("/screening/analyze", r.handleScreeningAnalyze)
	group.POST("/screening/etf-scan", r.handleETFScan)
	group.POST("/zakat/calculate", r.handleZakat)
	group.POST("/portfolio/analyze", r.handlePortfolio)
	group.POST("/simulation/calculate", r.handleSimulation)
	group.POST("/charting/history", r.handleChartHistory)
	group.GET("/charting/render", r.handleChartRender)
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "ihsan API running"})
}

func (r *Router) handleScreeningAnalyze(c *gin.Context) {
	if r.screener == nil {
		unavailable(c, "screening")
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	tickers := symbol.NormalizeList(maputil.StringSlice(body, "tickers"))
	if len(tickers) == 0 {
		fail(c, http.StatusBadRequest, "No ticker provided")
		return
	}
	results := r.screener.Screen(c.Request.Context(), tickers)
	if results == nil {
		results = []screening.Result{}
	}
	logger.Infof("[api] screening ip=%s tickers=%d results=%d", c.ClientIP(), len(tickers), len(results))
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (r *Router) handleETFScan(c *gin.Context) {
	if r.etf == nil {
		unavailable(c, "etf scan")
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	ticker := symbol.Normalize(maputil.String(body, "ticker"))
	if ticker == "" {
		fail(c, http.StatusBadRequest, "No ticker provided")
		return
	}
	rep, err := r.etf.Scan(c.Request.Context(), ticker)
	if err != nil {
		logger.Warnf("[api] etf scan %s failed ip=%s err=%v", ticker, c.ClientIP(), err)
		fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": rep})
}

func (r *Router) handleZakat(c *gin.Context) {
	if r.zakat == nil {
		unavailable(c, "zakat")
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	assets := zakat.Assets{
		Cash:    maputil.Decimal(body, "cash"),
		Savings: maputil.Decimal(body, "savings"),
		Stocks:  maputil.Decimal(body, "stocks"),
		Crypto:  maputil.Decimal(body, "crypto"),
		Gold:    maputil.Decimal(body, "gold"),
		Debts:   maputil.Decimal(body, "debts"),
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": r.zakat.Calculate(c.Request.Context(), assets)})
}

func (r *Router) handlePortfolio(c *gin.Context) {
	if r.portfolio == nil {
		unavailable(c, "portfolio")
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	items := maputil.Objects(body, "assets")
	positions := make([]portfolio.Position, 0, len(items))
	for _, m := range items {
		positions = append(positions, portfolio.Position{
			Ticker:   maputil.String(m, "ticker"),
			Quantity: maputil.Decimal(m, "qty"),
			AvgPrice: maputil.Decimal(m, "avg_price"),
			Type:     portfolio.ParseAssetType(maputil.String(m, "type")),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": r.portfolio.Analyze(c.Request.Context(), positions)})
}

func (r *Router) handleSimulation(c *gin.Context) {
	if r.simulator == nil {
		unavailable(c, "simulation")
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	if !maputil.Has(body, "tickers") {
		body["tickers"] = defaultSimTickers
	}
	req := simulation.Request{
		Tickers:       symbol.NormalizeList(maputil.StringSlice(body, "tickers")),
		MonthlyAmount: decimal.NewFromInt(defaultSimMonthly),
		StartYear:     defaultSimStartYear,
	}
	if maputil.Has(body, "monthly_amount") {
		req.MonthlyAmount = maputil.Decimal(body, "monthly_amount")
	}
	if maputil.Has(body, "start_year") {
		req.StartYear = maputil.Int(body, "start_year")
	}
	res, err := r.simulator.Run(c.Request.Context(), req)
	if err != nil {
		logger.Warnf("[api] simulation failed ip=%s err=%v", c.ClientIP(), err)
		fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

func (r *Router) handleChartHistory(c *gin.Context) {
	if r.charts == nil {
		unavailable(c, "charting")
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	h, err := r.charts.History(c.Request.Context(), maputil.String(body, "ticker"), maputil.String(body, "period"))
	if err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, h)
}

func (r *Router) handleChartRender(c *gin.Context) {
	if r.charts == nil {
		unavailable(c, "charting")
		return
	}
	var buf bytes.Buffer
	if err := r.charts.Render(c.Request.Context(), c.Query("ticker"), c.Query("period"), &buf); err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// statusFor maps service errors onto HTTP statuses. Anything unrecognised
// is an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrNoTickers),
		errors.Is(err, simulation.ErrInvalidAmount),
		errors.Is(err, simulation.ErrInvalidYear),
		errors.Is(err, chart.ErrNoTicker),
		errors.Is(err, chart.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNotFound),
		errors.Is(err, etf.ErrNoFundData),
		errors.Is(err, chart.ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func unavailable(c *gin.Context, what string) {
	fail(c, http.StatusServiceUnavailable, what+" is not configured")
}

// bindObject decodes a JSON object body with loosely typed values.
func bindObject(c *gin.Context) (map[string]any, bool) {
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warnf("[api] %s bind failed ip=%s err=%v", c.FullPath(), c.ClientIP(), err)
		fail(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	return body, true
}

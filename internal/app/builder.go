package app

import (
	"context"
	"fmt"

	"ihsan/internal/chart"
	"ihsan/internal/config"
	"ihsan/internal/etf"
	"ihsan/internal/gateway"
	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/portfolio"
	"ihsan/internal/rules"
	"ihsan/internal/screening"
	"ihsan/internal/simulation"
	apihttp "ihsan/internal/transport/http/api"
	"ihsan/internal/zakat"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// AppBuilder assembles the App from config. The provider and rules hooks can
// be replaced for tests.
type AppBuilder struct {
	cfg *config.Config

	providerFn func(*config.Config, prometheus.Registerer) (market.Provider, error)
	rulesFn    func(path string) (*rules.Store, error)
}

type AppBuilderOption func(*AppBuilder)

// WithProvider replaces the market-data provider.
func WithProvider(p market.Provider) AppBuilderOption {
	return func(b *AppBuilder) {
		b.providerFn = func(*config.Config, prometheus.Registerer) (market.Provider, error) { return p, nil }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		providerFn: gateway.NewProviderFromConfig,
		rulesFn:    rules.NewStore,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider, err := b.providerFn(cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("building market provider: %w", err)
	}
	store, err := b.rulesFn(cfg.Screening.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading compliance rules: %w", err)
	}

	screener := screening.NewService(provider, store, screening.Options{
		Concurrency:   cfg.Screening.Concurrency,
		SymbolTimeout: cfg.Screening.SymbolTimeout(),
		Technicals:    cfg.Screening.Technicals,
	}, screening.NewMetrics(registry))

	server := apihttp.NewServer(apihttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Prefix:   cfg.App.APIPrefix,
		Gatherer: registry,
		Screener: screener,
		ETF:      etf.NewScanner(provider),
		Zakat: zakat.NewCalculator(provider, zakat.Config{
			GoldSymbol:         cfg.Zakat.GoldSymbol,
			SilverSymbol:       cfg.Zakat.SilverSymbol,
			GoldGramFallback:   cfg.Zakat.GoldGramFallback,
			SilverGramFallback: cfg.Zakat.SilverGramFallback,
		}),
		Portfolio: portfolio.NewAnalyzer(provider, portfolio.Config{
			StockPurificationRate: cfg.Portfolio.StockPurificationRate,
			Concurrency:           cfg.Screening.Concurrency,
		}),
		Simulator: simulation.NewSimulator(provider, simulation.Config{
			PurificationRate: cfg.Simulation.PurificationRate,
			Concurrency:      cfg.Screening.Concurrency,
		}),
		Charts: chart.NewService(provider),
	})

	snap := store.Snapshot()
	logger.Infof("✓ rules v%d from %s, provider %s", snap.Version, snap.Source, cfg.Provider.Name)

	return &App{
		cfg:      cfg,
		server:   server,
		rules:    store,
		screener: screener,
		registry: registry,
		Summary:  newStartupSummary(cfg, snap),
	}, nil
}

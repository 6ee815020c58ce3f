// Package app wires the provider, rules, services and HTTP server together
// and runs them.
package app

import (
	"context"
	"fmt"

	"ihsan/internal/config"
	"ihsan/internal/logger"
	"ihsan/internal/rules"
	"ihsan/internal/screening"
	apihttp "ihsan/internal/transport/http/api"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// App owns the long-running parts of the service.
type App struct {
	cfg      *config.Config
	server   *apihttp.Server
	rules    *rules.Store
	screener *screening.Service
	registry *prometheus.Registry
	Summary  *StartupSummary
}

// NewApp builds the application without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves HTTP and, when enabled, hot-reloads the rules file until ctx
// is cancelled or either part fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.cfg.Screening.WatchRules && a.cfg.Screening.RulesPath != "" {
		group.Go(func() error {
			if err := a.rules.Watch(ctx); err != nil {
				return fmt.Errorf("rules watcher error: %w", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Screener exposes the screening service for one-shot CLI use.
func (a *App) Screener() *screening.Service {
	if a == nil {
		return nil
	}
	return a.screener
}

// Server exposes the HTTP server, mainly for tests.
func (a *App) Server() *apihttp.Server {
	if a == nil {
		return nil
	}
	return a.server
}

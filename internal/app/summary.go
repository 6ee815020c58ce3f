package app

import (
	"fmt"
	"strings"

	"ihsan/internal/config"
	"ihsan/internal/rules"
)

// StartupSummary is printed once before the server starts.
type StartupSummary struct {
	Env         string
	Addr        string
	Provider    string
	FastQuote   string
	Concurrency int
	Timeout     string
	Technicals  bool
	Rules       RulesSummary
}

type RulesSummary struct {
	Version   int64
	Source    string
	Threshold float64
	Watching  bool
}

func newStartupSummary(cfg *config.Config, snap *rules.Snapshot) *StartupSummary {
	s := &StartupSummary{
		Env:         cfg.App.Env,
		Addr:        cfg.App.HTTPAddr + cfg.App.APIPrefix,
		Provider:    cfg.Provider.Name,
		FastQuote:   "off",
		Concurrency: cfg.Screening.Concurrency,
		Timeout:     cfg.Screening.SymbolTimeout().String(),
		Technicals:  cfg.Screening.Technicals,
	}
	if cfg.Binance.Enabled {
		s.FastQuote = "binance " + cfg.Binance.BaseURL
	}
	if snap != nil {
		s.Rules = RulesSummary{
			Version:   snap.Version,
			Source:    snap.Source,
			Threshold: snap.Rules.RatioThreshold,
			Watching:  cfg.Screening.WatchRules && cfg.Screening.RulesPath != "",
		}
	}
	return s
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "  STARTUP SUMMARY")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "  env:          %s\n", s.Env)
	fmt.Fprintf(&b, "  listen:       %s\n", s.Addr)
	fmt.Fprintf(&b, "  provider:     %s (fast quote: %s)\n", s.Provider, s.FastQuote)
	fmt.Fprintf(&b, "  screening:    concurrency=%d timeout=%s technicals=%t\n", s.Concurrency, s.Timeout, s.Technicals)
	fmt.Fprintf(&b, "  rules:        v%d from %s, ratio threshold %g%%, watch=%t\n", s.Rules.Version, s.Rules.Source, s.Rules.Threshold, s.Rules.Watching)
	fmt.Fprint(&b, line)
	return b.String()
}

func (s *StartupSummary) Print() {
	fmt.Println(s.String())
}

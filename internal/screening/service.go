// Package screening runs the fetch, normalize and classify pipeline for one
// symbol or a batch of symbols.
package screening

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"ihsan/internal/compliance"
	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/normalize"
	"ihsan/internal/pkg/symbol"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoTickers is returned when a request names no usable ticker.
var ErrNoTickers = errors.New("no ticker provided")

const (
	defaultConcurrency   = 4
	defaultSymbolTimeout = 20 * time.Second
)

// ClassifierSource yields the classifier of the active rule set.
type ClassifierSource interface {
	Classifier() *compliance.Classifier
}

type staticClassifier struct{ c *compliance.Classifier }

func (s staticClassifier) Classifier() *compliance.Classifier { return s.c }

// Static wraps a fixed classifier as a ClassifierSource.
func Static(c *compliance.Classifier) ClassifierSource { return staticClassifier{c: c} }

type Options struct {
	Concurrency   int
	SymbolTimeout time.Duration
	Technicals    bool
}

type Service struct {
	provider market.Provider
	rules    ClassifierSource
	opts     Options
	metrics  *Metrics
}

func NewService(provider market.Provider, rules ClassifierSource, opts Options, metrics *Metrics) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.SymbolTimeout <= 0 {
		opts.SymbolTimeout = defaultSymbolTimeout
	}
	return &Service{provider: provider, rules: rules, opts: opts, metrics: metrics}
}

// ParseTickers splits a comma and/or whitespace separated list into trimmed,
// upper-cased, de-duplicated tickers.
func ParseTickers(raw string) []string {
	return symbol.SplitList(raw)
}

// ScreenOne screens a single ticker. Unresolvable tickers return an error
// matching market.ErrNotFound or normalize.ErrUnresolvable.
func (s *Service) ScreenOne(ctx context.Context, ticker string) (Result, error) {
	ticker = symbol.Normalize(ticker)
	if ticker == "" {
		return Result{}, ErrNoTickers
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.SymbolTimeout)
	defer cancel()
	return s.screen(ctx, s.rules.Classifier(), ticker)
}

// BatchOption customizes one Screen call.
type BatchOption func(*batchConfig)

type batchConfig struct {
	onDone func(ticker string, err error)
}

// WithProgress reports each finished ticker. fn is called from worker
// goroutines and must be safe for concurrent use.
func WithProgress(fn func(ticker string, err error)) BatchOption {
	return func(c *batchConfig) { c.onDone = fn }
}

// Screen screens tickers in parallel. Results keep input order; symbols
// that fail, time out or panic are logged and omitted. The whole batch sees
// one rule snapshot.
func (s *Service) Screen(ctx context.Context, tickers []string, opts ...BatchOption) []Result {
	var cfg batchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	tickers = symbol.NormalizeList(tickers)
	if len(tickers) == 0 {
		return []Result{}
	}
	classifier := s.rules.Classifier()
	batchID := uuid.NewString()
	s.metrics.batch()
	started := time.Now()

	slots := make([]*Result, len(tickers))
	var eg errgroup.Group
	eg.SetLimit(s.opts.Concurrency)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		eg.Go(func() error {
			res, err := s.screenGuarded(ctx, classifier, ticker)
			if cfg.onDone != nil {
				cfg.onDone(ticker, err)
			}
			if err != nil {
				logger.Warnf("screening batch=%s %s skipped: %v", batchID, ticker, err)
				return nil
			}
			slots[i] = &res
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]Result, 0, len(tickers))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	logger.Infof("screening batch=%s done: %d/%d screened in %s", batchID, len(out), len(tickers), time.Since(started).Round(time.Millisecond))
	return out
}

// ScreenList parses raw and screens the tickers in it.
func (s *Service) ScreenList(ctx context.Context, raw string, opts ...BatchOption) ([]Result, error) {
	tickers := ParseTickers(raw)
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}
	return s.Screen(ctx, tickers, opts...), nil
}

func (s *Service) screenGuarded(parent context.Context, classifier *compliance.Classifier, ticker string) (res Result, err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("screening %s panic: %v\n%s", ticker, r, debug.Stack())
			err = fmt.Errorf("screening %s: panic: %v", ticker, r)
			s.metrics.observe(OutcomePanic, time.Since(started))
		}
	}()
	if parent.Err() != nil {
		return Result{}, parent.Err()
	}
	ctx, cancel := context.WithTimeout(parent, s.opts.SymbolTimeout)
	defer cancel()

	res, err = s.screen(ctx, classifier, ticker)
	s.metrics.observe(outcomeOf(parent, res, err), time.Since(started))
	if err == nil && parent.Err() != nil {
		// the batch was cancelled while this symbol finished; drop it
		return Result{}, parent.Err()
	}
	return res, err
}

func (s *Service) screen(ctx context.Context, classifier *compliance.Classifier, ticker string) (Result, error) {
	raw, err := s.provider.FetchProfile(ctx, ticker)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if raw.Symbol == "" {
		raw.Symbol = ticker
	}
	profile, err := normalize.Normalize(raw)
	if err != nil {
		return Result{}, fmt.Errorf("normalize %s: %w", ticker, err)
	}
	verdict := classifier.Classify(profile)
	tech := s.technicals(ctx, profile)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("screen %s: %w", ticker, err)
	}
	return newResult(profile, verdict, tech), nil
}

func outcomeOf(parent context.Context, res Result, err error) string {
	switch {
	case err == nil && res.IsHalal:
		return OutcomeCompliant
	case err == nil:
		return OutcomeNonCompliant
	case errors.Is(err, market.ErrNotFound), errors.Is(err, normalize.ErrUnresolvable):
		return OutcomeNotFound
	case parent.Err() != nil:
		return OutcomeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

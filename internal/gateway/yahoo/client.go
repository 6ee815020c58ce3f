// Package yahoo implements market.Provider on the public Yahoo Finance JSON
// endpoints.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"ihsan/internal/logger"
	"ihsan/internal/market"
	"ihsan/internal/pkg/circuit"
	"ihsan/internal/pkg/text"

	"golang.org/x/time/rate"
)

const (
	providerName = "yahoo"
	maxBodyBytes = 8 << 20
)

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("yahoo %s: http %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("yahoo %s: http %d: %s", e.Endpoint, e.Code, e.Body)
}

// Client is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuit.CircuitBreaker
	metrics    *Metrics
	sleep      func(ctx context.Context, d time.Duration) error

	crumbMu sync.Mutex
	crumb   string
}

var _ market.Provider = (*Client)(nil)

func New(cfg Config, metrics *Metrics) (*Client, error) {
	final := cfg.withDefaults()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar failed: %w", err)
	}
	breaker := circuit.NewCircuitBreaker(providerName, final.BreakerThreshold, final.BreakerCooldown)
	breaker.SetStateChangeHandler(metrics.observeBreaker)
	return &Client{
		cfg:        final,
		httpClient: &http.Client{Timeout: final.Timeout, Jar: jar},
		limiter:    rate.NewLimiter(rate.Limit(final.RatePerSecond), final.Burst),
		breaker:    breaker,
		metrics:    metrics,
		sleep:      sleepCtx,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing. The cookie jar is kept.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client.Jar == nil {
		client.Jar = c.httpClient.Jar
	}
	c.httpClient = client
}

// get performs one logical request with rate limiting, bounded retries and
// the circuit breaker. needsCrumb requests get the session crumb appended and
// refresh it once on 401.
func (c *Client) get(ctx context.Context, endpoint, symbol, rawURL string, needsCrumb bool) ([]byte, error) {
	var body []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.getWithRetry(ctx, endpoint, symbol, rawURL, needsCrumb)
		return err
	}, countsAgainstBreaker)
	if errors.Is(err, circuit.ErrOpen) {
		return nil, fmt.Errorf("yahoo %s %s: %w", endpoint, symbol, err)
	}
	return body, err
}

func (c *Client) getWithRetry(ctx context.Context, endpoint, symbol, rawURL string, needsCrumb bool) ([]byte, error) {
	crumbRefreshed := false
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}
		target := rawURL
		if needsCrumb {
			if crumb := c.sessionCrumb(ctx); crumb != "" {
				target = appendQuery(rawURL, "crumb", crumb)
			}
		}
		body, err := c.fetch(ctx, endpoint, symbol, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		var se *StatusError
		if needsCrumb && !crumbRefreshed && errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			crumbRefreshed = true
			c.resetCrumb()
			attempt--
			continue
		}
		if !retryable(ctx, err) {
			return nil, err
		}
		logger.Debugf("yahoo %s %s attempt %d failed: %v", endpoint, symbol, attempt+1, err)
	}
	return nil, lastErr
}

func (c *Client) fetch(ctx context.Context, endpoint, symbol, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build yahoo request failed: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(endpoint, 0)
		return nil, fmt.Errorf("call yahoo %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.observeRequest(endpoint, resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("read yahoo %s body failed: %w", endpoint, err)
	}
	logger.LogProviderPayload(providerName, endpoint, symbol, resp.StatusCode, body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("yahoo %s %s: %w", endpoint, symbol, market.ErrNotFound)
	case resp.StatusCode >= 300:
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: text.Snippet(string(body), 200)}
	}
	return body, nil
}

// sessionCrumb returns the cached crumb, bootstrapping the cookie and crumb
// on first use. Failure yields an empty crumb; endpoints that need it will
// then answer 401 and trigger one refresh.
func (c *Client) sessionCrumb(ctx context.Context) string {
	c.crumbMu.Lock()
	defer c.crumbMu.Unlock()
	if c.crumb != "" {
		return c.crumb
	}
	crumb, err := c.bootstrapCrumb(ctx)
	if err != nil {
		logger.Debugf("yahoo crumb bootstrap failed: %v", err)
		return ""
	}
	c.crumb = crumb
	return crumb
}

func (c *Client) resetCrumb() {
	c.crumbMu.Lock()
	c.crumb = ""
	c.crumbMu.Unlock()
}

func (c *Client) bootstrapCrumb(ctx context.Context) (string, error) {
	// the cookie host answers 404 but still sets the session cookie
	if req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.CookieURL, nil); err == nil {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		if resp, err := c.httpClient.Do(req); err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.CrumbURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}
	crumb := strings.TrimSpace(string(raw))
	if resp.StatusCode != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", fmt.Errorf("unexpected crumb response: http %d", resp.StatusCode)
	}
	return crumb, nil
}

// retryable reports transient failures: transport errors, 429 and 5xx.
// Missing symbols and caller cancellation are final.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, market.ErrNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func countsAgainstBreaker(err error) bool {
	if errors.Is(err, market.ErrNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

func appendQuery(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + key + "=" + url.QueryEscape(value)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

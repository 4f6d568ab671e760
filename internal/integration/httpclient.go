package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// HTTPConfig configures outbound HTTP calls to the event site and APIs.
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	UserAgent  string
}

// DefaultHTTPConfig returns sensible defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		UserAgent:  "Mozilla/5.0 (compatible; VKU-Promo-Generator/1.0)",
	}
}

func normalizeHTTPConfig(cfg HTTPConfig) HTTPConfig {
	def := DefaultHTTPConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	return cfg
}

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	Status     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "unexpected status " + e.Status
	}
	return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
}

// retryable reports whether a failed attempt is worth repeating: transport
// errors, server errors and rate limits.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	se, ok := err.(*StatusError)
	if !ok {
		return true
	}
	switch se.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	}
	return false
}

// httpDoer sends requests through a failsafe retry policy. Responses that
// reach the caller always have a 2xx status.
type httpDoer struct {
	client    *http.Client
	executor  failsafe.Executor[*http.Response]
	userAgent string
}

//nolint:bodyclose // [*http.Response] is a type parameter here, not a live response
func newHTTPDoer(cfg HTTPConfig) *httpDoer {
	cfg = normalizeHTTPConfig(cfg)
	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ *http.Response, err error) bool {
			return retryable(err)
		}).
		Build()
	return &httpDoer{
		client:    &http.Client{Timeout: cfg.Timeout},
		executor:  failsafe.With[*http.Response](retry),
		userAgent: cfg.UserAgent,
	}
}

// do builds a fresh request per attempt, so bodies can be replayed.
func (d *httpDoer) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	return d.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", d.userAgent)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &StatusError{Status: resp.Status, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return resp, nil
	})
}

// get fetches url and returns the body.
func (d *httpDoer) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

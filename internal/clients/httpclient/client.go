// Package httpclient is the shared outbound HTTP layer: minimum
// inter-request spacing per client instance, bounded connections, per-request
// timeout, and classified retry with exponential backoff.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Config holds per-client settings
type Config struct {
	BaseURL string
	Headers map[string]string

	// MinInterval is the minimum spacing between request dispatches from
	// this client instance. All requests through one instance serialize.
	MinInterval time.Duration

	// Timeout is the wall-clock limit for one attempt.
	Timeout time.Duration

	// MaxRetries is the total attempt ceiling (first try included).
	MaxRetries int

	// BackoffFactor multiplies the wait between attempts. Waits are floored
	// at one second and capped at one minute.
	BackoffFactor float64

	// MaxConns bounds concurrent connections of the underlying transport.
	MaxConns int
}

// Client is a rate-limited, retrying HTTP client for one API host.
// Two client instances never share a session.
type Client struct {
	cfg Config
	log zerolog.Logger

	mu          chan struct{} // held across pacing sleep + dispatch
	lastRequest time.Time
	http        *http.Client
}

// New creates a client. The underlying session is created lazily on first
// use and released by Close.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2.0
	}

	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	return &Client{
		cfg: cfg,
		log: log.With().Str("client", hostOf(cfg.BaseURL)).Logger(),
		mu:  mu,
	}
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}

// session returns the lazily built http.Client. Callers must hold c.mu.
func (c *Client) session() *http.Client {
	if c.http == nil {
		c.http = &http.Client{
			Timeout: c.cfg.Timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     c.cfg.MaxConns,
				MaxIdleConnsPerHost: c.cfg.MaxConns,
			},
		}
	}
	return c.http
}

// Close releases the underlying session. The client may be reused; a new
// session is created on the next request.
func (c *Client) Close() {
	<-c.mu
	defer func() { c.mu <- struct{}{} }()

	if c.http != nil {
		c.http.CloseIdleConnections()
		c.http = nil
	}
}

// GetJSON issues a GET and decodes the JSON response into out.
//
// Transport failures (including timeouts and non-2xx statuses other than
// 429) are retried with exponential backoff up to the configured attempt
// ceiling; the last error is returned once the ceiling is hit. A 429 is
// surfaced immediately as *RateLimitError. A success response that is not
// valid JSON is a permanent *MalformedResponseError.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	operation := func() error {
		body, reqURL, err := c.do(ctx, http.MethodGet, endpoint, params)
		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				return backoff.Permanent(err)
			}
			var te *TransportError
			if errors.As(err, &te) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(&MalformedResponseError{
				URL:  reqURL,
				Body: string(body),
				Err:  err,
			})
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 60 * time.Second
	bo.Multiplier = c.cfg.BackoffFactor
	bo.MaxElapsedTime = 0
	bo.RandomizationFactor = 0

	return backoff.Retry(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries-1)), ctx),
	)
}

// do performs a single paced attempt. The mutex is held across the pacing
// sleep and the dispatch, serializing all requests from this instance.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values) ([]byte, string, error) {
	reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	select {
	case <-c.mu:
	case <-ctx.Done():
		return nil, reqURL, &TransportError{URL: reqURL, Err: ctx.Err()}
	}
	defer func() { c.mu <- struct{}{} }()

	// Pace: keep at least MinInterval between dispatches.
	if wait := c.cfg.MinInterval - time.Since(c.lastRequest); wait > 0 && !c.lastRequest.IsZero() {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, reqURL, &TransportError{URL: reqURL, Err: ctx.Err()}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, reqURL, &TransportError{URL: reqURL, Err: err}
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.session().Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", reqURL).Msg("Request failed")
		return nil, reqURL, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	c.lastRequest = time.Now()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, reqURL, &TransportError{URL: reqURL, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.Warn().Str("url", reqURL).Msg("Rate limit exceeded")
		return nil, reqURL, &RateLimitError{URL: reqURL, Body: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, reqURL, &TransportError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return body, reqURL, nil
}

// Package sec is the client for the SEC company directory APIs.
package sec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/clients/httpclient"
	"github.com/finwatch/earnings-scraper/internal/config"
	"github.com/finwatch/earnings-scraper/internal/domain"
)

const defaultBaseURL = "https://www.sec.gov"

// CompanyTicker is one row of the SEC company_tickers.json mapping
type CompanyTicker struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// Client talks to the SEC APIs
type Client struct {
	api *httpclient.Client
	log zerolog.Logger
}

// New creates an SEC client. The SEC requires a declared contact in the
// User-Agent header.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	return NewWithBaseURL(cfg, defaultBaseURL, log)
}

// NewWithBaseURL creates an SEC client against a custom base URL
func NewWithBaseURL(cfg *config.Config, baseURL string, log zerolog.Logger) *Client {
	api := httpclient.New(httpclient.Config{
		BaseURL: baseURL,
		Headers: map[string]string{
			"User-Agent":      fmt.Sprintf("ResearchProject %s", cfg.SECUserAgentEmail),
			"Accept":          "application/json",
			"Accept-Encoding": "gzip, deflate",
		},
		MinInterval:   cfg.SECRateLimit,
		Timeout:       cfg.RequestTimeout,
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.RetryBackoffFactor,
		MaxConns:      cfg.MaxConcurrentRequests,
	}, log)

	return &Client{
		api: api,
		log: log.With().Str("client", "sec").Logger(),
	}
}

// Close releases the underlying HTTP session
func (c *Client) Close() {
	c.api.Close()
}

// GetCompanyTickers fetches the full company directory: a mapping of opaque
// row index to {cik, ticker, title}.
func (c *Client) GetCompanyTickers(ctx context.Context) (map[string]CompanyTicker, error) {
	var out map[string]CompanyTicker
	if err := c.api.GetJSON(ctx, "files/company_tickers.json", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch company tickers: %w", err)
	}
	c.log.Debug().Int("count", len(out)).Msg("Fetched company tickers")
	return out, nil
}

// GetCompanyFacts fetches detailed facts for one 10-digit CIK
func (c *Client) GetCompanyFacts(ctx context.Context, cik string) (map[string]any, error) {
	if !domain.IsValidCIK(cik) {
		return nil, fmt.Errorf("CIK must be 10 digits, got %q", cik)
	}

	var out map[string]any
	endpoint := fmt.Sprintf("api/xbrl/companyfacts/CIK%s.json", cik)
	if err := c.api.GetJSON(ctx, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch company facts for %s: %w", cik, err)
	}
	return out, nil
}

// ValidateCIK reports whether a CIK exists and serves facts
func (c *Client) ValidateCIK(ctx context.Context, cik string) bool {
	_, err := c.GetCompanyFacts(ctx, cik)
	return err == nil
}

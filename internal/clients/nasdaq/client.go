// Package nasdaq is the client for the NASDAQ calendar and quote APIs.
package nasdaq

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/clients/httpclient"
	"github.com/finwatch/earnings-scraper/internal/config"
)

const defaultBaseURL = "https://api.nasdaq.com/api"

// CalendarRow is one raw earnings announcement from the calendar endpoint.
// Numeric fields arrive as strings; an empty string means the value is
// absent, not zero.
type CalendarRow struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	EPSEstimate     string `json:"eps_estimate"`
	EPSActual       string `json:"eps_actual"`
	RevenueEstimate string `json:"revenue_estimate"`
	RevenueActual   string `json:"revenue_actual"`
}

// CalendarResponse is the envelope of the earnings calendar endpoint
type CalendarResponse struct {
	Data struct {
		Rows []CalendarRow `json:"rows"`
	} `json:"data"`
}

// CompanyInfo is the subset of the quote info endpoint we read
type CompanyInfo struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

// Client talks to the NASDAQ APIs
type Client struct {
	api *httpclient.Client
	log zerolog.Logger
}

// New creates a NASDAQ client
func New(cfg *config.Config, log zerolog.Logger) *Client {
	return NewWithBaseURL(cfg, defaultBaseURL, log)
}

// NewWithBaseURL creates a NASDAQ client against a custom base URL
func NewWithBaseURL(cfg *config.Config, baseURL string, log zerolog.Logger) *Client {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0",
		"Accept":     "application/json, text/plain, */*",
	}
	if cfg.NasdaqAPIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.NasdaqAPIKey
	}

	api := httpclient.New(httpclient.Config{
		BaseURL:       baseURL,
		Headers:       headers,
		MinInterval:   cfg.NasdaqRateLimit,
		Timeout:       cfg.RequestTimeout,
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.RetryBackoffFactor,
		MaxConns:      cfg.MaxConcurrentRequests,
	}, log)

	return &Client{
		api: api,
		log: log.With().Str("client", "nasdaq").Logger(),
	}
}

// Close releases the underlying HTTP session
func (c *Client) Close() {
	c.api.Close()
}

// GetEarningsCalendar fetches the earnings calendar for one date
func (c *Client) GetEarningsCalendar(ctx context.Context, date time.Time) (*CalendarResponse, error) {
	params := url.Values{}
	params.Set("date", date.Format("2006-01-02"))

	var out CalendarResponse
	if err := c.api.GetJSON(ctx, "calendar/earnings", params, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch earnings calendar: %w", err)
	}
	c.log.Debug().
		Str("date", date.Format("2006-01-02")).
		Int("rows", len(out.Data.Rows)).
		Msg("Fetched earnings calendar")
	return &out, nil
}

// GetCompanyInfo fetches detailed company information for a symbol
func (c *Client) GetCompanyInfo(ctx context.Context, symbol string) (*CompanyInfo, error) {
	var out CompanyInfo
	endpoint := fmt.Sprintf("quote/%s/info", symbol)
	if err := c.api.GetJSON(ctx, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch company info for %s: %w", symbol, err)
	}
	return &out, nil
}

// GetHistoricalEarnings fetches up to limit past earnings rows for a symbol
func (c *Client) GetHistoricalEarnings(ctx context.Context, symbol string, limit int) ([]CalendarRow, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(limit))

	var out CalendarResponse
	endpoint := fmt.Sprintf("company/%s/earnings-history", symbol)
	if err := c.api.GetJSON(ctx, endpoint, params, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch earnings history for %s: %w", symbol, err)
	}
	return out.Data.Rows, nil
}

// ValidateSymbol reports whether a symbol exists and is active
func (c *Client) ValidateSymbol(ctx context.Context, symbol string) bool {
	info, err := c.GetCompanyInfo(ctx, symbol)
	if err != nil {
		return false
	}
	return info.Status == "Active"
}

package sec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/earnings-scraper/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		SECUserAgentEmail:     "test@example.com",
		SECRateLimit:          time.Millisecond,
		MaxConcurrentRequests: 2,
		MaxRetries:            1,
		RequestTimeout:        5 * time.Second,
		RetryBackoffFactor:    2.0,
	}
}

func TestGetCompanyTickers(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"}
		}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(testConfig(), srv.URL, zerolog.Nop())
	defer c.Close()

	tickers, err := c.GetCompanyTickers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/files/company_tickers.json", gotPath)
	assert.Equal(t, "ResearchProject test@example.com", gotUA)
	require.Len(t, tickers, 2)
	assert.Equal(t, "AAPL", tickers["0"].Ticker)
	assert.Equal(t, "320193", tickers["0"].CIK.String())
}

func TestGetCompanyFactsValidatesCIK(t *testing.T) {
	c := NewWithBaseURL(testConfig(), "http://unused.invalid", zerolog.Nop())
	defer c.Close()

	_, err := c.GetCompanyFacts(context.Background(), "320193")
	require.Error(t, err, "unpadded CIK must be rejected before any request")

	_, err = c.GetCompanyFacts(context.Background(), "not-ten-digits")
	require.Error(t, err)
}

func TestGetCompanyFactsPathTemplate(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"cik": 320193, "entityName": "Apple Inc."}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(testConfig(), srv.URL, zerolog.Nop())
	defer c.Close()

	facts, err := c.GetCompanyFacts(context.Background(), "0000320193")
	require.NoError(t, err)
	assert.Equal(t, "/api/xbrl/companyfacts/CIK0000320193.json", gotPath)
	assert.Equal(t, "Apple Inc.", facts["entityName"])
}

func TestValidateCIK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/xbrl/companyfacts/CIK0000320193.json" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewWithBaseURL(testConfig(), srv.URL, zerolog.Nop())
	defer c.Close()

	assert.True(t, c.ValidateCIK(context.Background(), "0000320193"))
	assert.False(t, c.ValidateCIK(context.Background(), "0000000001"))
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/earnings-scraper/internal/config"
	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/modules/companies"
	"github.com/finwatch/earnings-scraper/internal/modules/earnings"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{BaseDataDir: t.TempDir(), StorageBackend: "csv"}
	require.NoError(t, cfg.EnsureDirs())

	companyRepo, err := companies.NewRepository(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	company, err := domain.NewCompany("320193", "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NoError(t, companyRepo.Add(company))

	earningsRepo, err := earnings.NewRepository(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	date := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	est, err := domain.ParseMetric("1.43")
	require.NoError(t, err)
	act, err := domain.ParseMetric("1.52")
	require.NoError(t, err)
	report := domain.EarningsReport{
		CompanyCIK:  "0000320193",
		Symbol:      "AAPL",
		ReportDate:  date,
		Session:     domain.SessionAfterMarket,
		Status:      domain.EarningsConfirmed,
		EPSEstimate: est,
		EPSActual:   act,
		CreatedAt:   time.Now().UTC(),
	}
	report.CalculateSurprises()
	require.NoError(t, earningsRepo.AddDailyReport(date, report))

	return New(Config{
		Port:      0,
		Log:       zerolog.Nop(),
		Directory: companies.NewDirectory(companyRepo, 0, zerolog.Nop()),
		Earnings:  earningsRepo,
	})
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, body := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestGetCompany(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/companies/aapl")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0000320193", body["cik"])
	assert.Equal(t, "AAPL", body["symbol"])

	rec, body = get(t, s, "/api/companies/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestGetEarnings(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/earnings?start=2026-01-01&end=2026-02-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	reports := body["reports"].([]interface{})
	first := reports[0].(map[string]interface{})
	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, "2026-01-29", first["report_date"])
	assert.Equal(t, "0.09", first["eps_surprise"])

	rec, body = get(t, s, "/api/earnings?start=2026-01-01&end=2026-02-01&symbol=MSFT")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
}

func TestGetEarningsRejectsBadRange(t *testing.T) {
	s := newTestServer(t)

	rec, _ := get(t, s, "/api/earnings?start=nope&end=2026-02-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, s, "/api/earnings?start=2026-02-01&end=2026-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummary(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/earnings/summary?symbol=AAPL&start=2026-01-01&end=2026-12-31")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_reports"])
	assert.Equal(t, float64(1), body["beat_estimates"])
	assert.Equal(t, "0.09", body["average_surprise"])

	rec, _ = get(t, s, "/api/earnings/summary?symbol=NOPE&start=2026-01-01&end=2026-12-31")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, s, "/api/earnings/summary?start=2026-01-01&end=2026-12-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

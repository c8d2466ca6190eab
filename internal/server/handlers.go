package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finwatch/earnings-scraper/internal/domain"
)

type companyResponse struct {
	CIK      string `json:"cik"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Status   string `json:"status"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
}

type earningsResponse struct {
	CompanyCIK      string           `json:"company_cik"`
	Symbol          string           `json:"symbol"`
	ReportDate      string           `json:"report_date"`
	ReportTime      string           `json:"report_time,omitempty"`
	MarketSession   string           `json:"market_session"`
	Status          string           `json:"status"`
	EPSEstimate     *decimal.Decimal `json:"eps_estimate,omitempty"`
	EPSActual       *decimal.Decimal `json:"eps_actual,omitempty"`
	RevenueEstimate *decimal.Decimal `json:"revenue_estimate,omitempty"`
	RevenueActual   *decimal.Decimal `json:"revenue_actual,omitempty"`
	EPSSurprise     *decimal.Decimal `json:"eps_surprise,omitempty"`
	RevenueSurprise *decimal.Decimal `json:"revenue_surprise,omitempty"`
}

func toEarningsResponse(r domain.EarningsReport) earningsResponse {
	return earningsResponse{
		CompanyCIK:      r.CompanyCIK,
		Symbol:          r.Symbol,
		ReportDate:      r.ReportDate.Format("2006-01-02"),
		ReportTime:      r.ReportTime,
		MarketSession:   string(r.Session),
		Status:          string(r.Status),
		EPSEstimate:     r.EPSEstimate,
		EPSActual:       r.EPSActual,
		RevenueEstimate: r.RevenueEstimate,
		RevenueActual:   r.RevenueActual,
		EPSSurprise:     r.EPSSurprise,
		RevenueSurprise: r.RevenueSurprise,
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "earnings-scraper",
	})
}

// handleGetCompany returns the directory entry for a symbol
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	company, err := s.directory.Get(r.Context(), symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Company lookup failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	if company == nil {
		s.writeError(w, http.StatusNotFound, "company not found")
		return
	}

	s.writeJSON(w, http.StatusOK, companyResponse{
		CIK:      company.CIK,
		Symbol:   company.Symbol,
		Name:     company.Name,
		Exchange: string(company.Exchange),
		Status:   string(company.Status),
		Sector:   company.Sector,
		Industry: company.Industry,
	})
}

func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", r.URL.Query().Get(name))
	return t, err == nil
}

// handleGetEarnings returns master reports for a date range, optionally
// narrowed to one symbol
func (s *Server) handleGetEarnings(w http.ResponseWriter, r *http.Request) {
	start, ok := parseDateParam(r, "start")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, ok := parseDateParam(r, "end")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		s.writeError(w, http.StatusBadRequest, "end must not precede start")
		return
	}

	var (
		reports []domain.EarningsReport
		err     error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		reports, err = s.earnings.GetBySymbol(symbol, &start, &end)
	} else {
		reports, err = s.earnings.Master().GetByDateRange(start, end)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Earnings lookup failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load earnings")
		return
	}

	out := make([]earningsResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toEarningsResponse(rep))
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(out),
		"reports": out,
	})
}

// handleGetSummary returns the aggregated surprise stats for one symbol
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	start, ok := parseDateParam(r, "start")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, ok := parseDateParam(r, "end")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}

	summary, err := s.earnings.GetSummary(symbol, start, end)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Summary lookup failed")
		s.writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	if summary == nil {
		s.writeError(w, http.StatusNotFound, "no reports in range")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":           summary.Symbol,
		"period_start":     summary.PeriodStart.Format("2006-01-02"),
		"period_end":       summary.PeriodEnd.Format("2006-01-02"),
		"total_reports":    summary.TotalReports,
		"beat_estimates":   summary.BeatEstimates,
		"missed_estimates": summary.MissedEstimates,
		"average_surprise": summary.AverageSurprise,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

package earnings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finwatch/earnings-scraper/internal/calendar"
	"github.com/finwatch/earnings-scraper/internal/clients/nasdaq"
	"github.com/finwatch/earnings-scraper/internal/domain"
)

// CalendarSource provides raw earnings calendars.
type CalendarSource interface {
	GetEarningsCalendar(ctx context.Context, date time.Time) (*nasdaq.CalendarResponse, error)
}

// CIKResolver maps symbols to CIKs, "" when unknown.
type CIKResolver interface {
	GetCIK(ctx context.Context, symbol string) (string, error)
}

// Archiver persists raw calendar payloads before shaping.
type Archiver interface {
	SaveCalendar(date time.Time, payload any) error
}

// RangeResult reports one UpdateRange run.
type RangeResult struct {
	// Counts holds the stored-report count per trading day walked, keyed
	// by YYYY-MM-DD.
	Counts map[string]int
	// ZeroDates are the walked days that yielded no reports, in walk order.
	ZeroDates []string
}

// TotalReports sums the per-date counts.
func (r RangeResult) TotalReports() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Service orchestrates calendar ingestion: fetch, shape, resolve, persist.
type Service struct {
	src      CalendarSource
	resolver CIKResolver
	repo     *Repository
	cal      *calendar.TradingCalendar
	archive  Archiver
	log      zerolog.Logger

	// Serializes fetch-and-persist runs so concurrent triggers (CLI plus
	// cron, say) cannot interleave writes for the same date.
	mu sync.Mutex
}

// NewService creates the ingestion service. archive may be nil to skip raw
// payload archiving.
func NewService(src CalendarSource, resolver CIKResolver, repo *Repository, cal *calendar.TradingCalendar, archive Archiver, log zerolog.Logger) *Service {
	return &Service{
		src:      src,
		resolver: resolver,
		repo:     repo,
		cal:      cal,
		archive:  archive,
		log:      log.With().Str("component", "earnings-service").Logger(),
	}
}

// shapeRow converts one raw calendar row into a report, resolving its CIK.
func (s *Service) shapeRow(ctx context.Context, row nasdaq.CalendarRow) (*domain.EarningsReport, error) {
	if row.Symbol == "" {
		return nil, fmt.Errorf("row has no symbol")
	}

	cik, err := s.resolver.GetCIK(ctx, row.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve CIK for %s: %w", row.Symbol, err)
	}
	if cik == "" {
		return nil, fmt.Errorf("no CIK found for symbol %s", row.Symbol)
	}

	date, err := time.Parse(dateFormat, row.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid report date %q: %w", row.Date, err)
	}

	// The time field is a free-text hint; keep it as a clock time only
	// when it parses as one.
	reportTime := ""
	if _, err := time.Parse("15:04", row.Time); err == nil {
		reportTime = row.Time
	}

	report := domain.EarningsReport{
		CompanyCIK: cik,
		Symbol:     domain.NormalizeSymbol(row.Symbol),
		ReportDate: date,
		ReportTime: reportTime,
		Session:    domain.ClassifySession(row.Time),
		Status:     domain.EarningsConfirmed,
		CreatedAt:  time.Now().UTC(),
	}

	for _, m := range []struct {
		raw  string
		dst  **decimal.Decimal
		name string
	}{
		{row.EPSEstimate, &report.EPSEstimate, "eps_estimate"},
		{row.EPSActual, &report.EPSActual, "eps_actual"},
		{row.RevenueEstimate, &report.RevenueEstimate, "revenue_estimate"},
		{row.RevenueActual, &report.RevenueActual, "revenue_actual"},
	} {
		v, err := domain.ParseMetric(m.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s for %s: %w", m.name, row.Symbol, err)
		}
		*m.dst = v
	}

	report.CalculateSurprises()
	return &report, nil
}

// FetchDaily fetches, shapes, and stores the earnings calendar for one date.
// Non-trading days return an empty slice without touching the API. Rows that
// cannot be shaped are logged and dropped; a storage failure stops the run
// and propagates to the caller.
func (s *Service) FetchDaily(ctx context.Context, date time.Time) ([]domain.EarningsReport, error) {
	day := date.Format(dateFormat)
	if !s.cal.IsTradingDay(date) {
		s.log.Info().Str("date", day).Msg("Not a trading day, skipping fetch")
		return []domain.EarningsReport{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.src.GetEarningsCalendar(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings calendar for %s: %w", day, err)
	}

	if s.archive != nil {
		if err := s.archive.SaveCalendar(date, resp); err != nil {
			s.log.Warn().Err(err).Str("date", day).Msg("Failed to archive raw payload")
		}
	}

	var stored []domain.EarningsReport
	for _, row := range resp.Data.Rows {
		report, err := s.shapeRow(ctx, row)
		if err != nil {
			s.log.Warn().Err(err).Str("date", day).Msg("Dropping earnings row")
			continue
		}
		if err := s.repo.AddDailyReport(report.ReportDate, *report); err != nil {
			s.log.Error().Err(err).Str("symbol", report.Symbol).Str("date", day).Msg("Failed to store earnings report")
			return nil, fmt.Errorf("failed to store earnings report for %s on %s: %w", report.Symbol, day, err)
		}
		stored = append(stored, *report)
	}

	s.log.Info().Str("date", day).Int("reports", len(stored)).Msg("Processed earnings calendar")
	return stored, nil
}

// UpdateRange walks the trading days in [start, end] and fetches each one.
// A failing date records a zero count and the walk continues.
func (s *Service) UpdateRange(ctx context.Context, start, end time.Time) (RangeResult, error) {
	res := RangeResult{Counts: make(map[string]int)}
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()

	log.Info().
		Str("start", start.Format(dateFormat)).
		Str("end", end.Format(dateFormat)).
		Msg("Starting range update")

	for d := start; !d.After(end); d = s.cal.NextTradingDay(d) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		day := d.Format(dateFormat)
		reports, err := s.FetchDaily(ctx, d)
		if err != nil {
			log.Error().Err(err).Str("date", day).Msg("Failed to process date")
			res.Counts[day] = 0
		} else {
			res.Counts[day] = len(reports)
		}
		if res.Counts[day] == 0 {
			res.ZeroDates = append(res.ZeroDates, day)
		}
	}

	log.Info().
		Int("dates", len(res.Counts)).
		Int("reports", res.TotalReports()).
		Int("zero_dates", len(res.ZeroDates)).
		Msg("Range update complete")
	return res, nil
}

// GetSummary aggregates a symbol's stored reports over a range.
func (s *Service) GetSummary(symbol string, start, end time.Time) (*Summary, error) {
	return s.repo.GetSummary(symbol, start, end)
}

// MissingDates returns the trading days in [start, end] with no stored
// reports.
func (s *Service) MissingDates(start, end time.Time) ([]time.Time, error) {
	all, err := s.repo.MissingDates(start, end)
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for _, d := range all {
		if s.cal.IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

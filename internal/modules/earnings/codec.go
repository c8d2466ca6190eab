// Package earnings ingests the daily earnings calendar and maintains the
// master and per-date earnings stores.
package earnings

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/storage"
)

// Codec maps domain.EarningsReport onto tabular rows. Records are keyed by
// (symbol, report date) so a company can report on many dates while a date
// holds at most one row per symbol.
type Codec struct{}

var columns = []string{
	"company_cik", "symbol", "report_date", "report_time",
	"market_session", "status",
	"eps_estimate", "eps_actual", "revenue_estimate", "revenue_actual",
	"eps_surprise", "revenue_surprise",
	"created_at",
}

const dateFormat = "2006-01-02"

func (Codec) Columns() []string { return columns }

// CompositeKey builds the (symbol, report date) identity of a report.
func CompositeKey(symbol string, date time.Time) string {
	return domain.NormalizeSymbol(symbol) + "|" + date.Format(dateFormat)
}

func (Codec) Key(rec domain.EarningsReport) string {
	return CompositeKey(rec.Symbol, rec.ReportDate)
}

func (Codec) NormalizeKey(key string) string {
	sym, date, ok := strings.Cut(key, "|")
	if !ok {
		return key
	}
	return domain.NormalizeSymbol(sym) + "|" + date
}

func encodeMetric(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func (Codec) Encode(rec domain.EarningsReport) ([]string, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return []string{
		rec.CompanyCIK,
		domain.NormalizeSymbol(rec.Symbol),
		rec.ReportDate.Format(dateFormat),
		rec.ReportTime,
		string(rec.Session),
		string(rec.Status),
		encodeMetric(rec.EPSEstimate),
		encodeMetric(rec.EPSActual),
		encodeMetric(rec.RevenueEstimate),
		encodeMetric(rec.RevenueActual),
		encodeMetric(rec.EPSSurprise),
		encodeMetric(rec.RevenueSurprise),
		storage.FormatTimestamp(rec.CreatedAt),
	}, nil
}

func (Codec) Decode(row []string) (domain.EarningsReport, error) {
	if len(row) != len(columns) {
		return domain.EarningsReport{}, fmt.Errorf("earnings row has %d columns, want %d", len(row), len(columns))
	}

	date, err := storage.ParseTimestamp(row[2])
	if err != nil {
		return domain.EarningsReport{}, fmt.Errorf("invalid report_date: %w", err)
	}
	created, err := storage.ParseTimestamp(row[12])
	if err != nil {
		return domain.EarningsReport{}, fmt.Errorf("invalid created_at: %w", err)
	}

	metrics := make([]*decimal.Decimal, 6)
	for i, cell := range row[6:12] {
		m, err := domain.ParseMetric(cell)
		if err != nil {
			return domain.EarningsReport{}, fmt.Errorf("invalid %s: %w", columns[6+i], err)
		}
		metrics[i] = m
	}

	// Reads stay tolerant; only writes go through Validate.
	return domain.EarningsReport{
		CompanyCIK:      row[0],
		Symbol:          row[1],
		ReportDate:      date,
		ReportTime:      row[3],
		Session:         domain.MarketSession(row[4]),
		Status:          domain.EarningsStatus(row[5]),
		EPSEstimate:     metrics[0],
		EPSActual:       metrics[1],
		RevenueEstimate: metrics[2],
		RevenueActual:   metrics[3],
		EPSSurprise:     metrics[4],
		RevenueSurprise: metrics[5],
		CreatedAt:       created,
	}, nil
}

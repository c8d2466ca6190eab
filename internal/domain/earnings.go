package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MarketSession classifies when during the trading day a report lands
type MarketSession string

const (
	SessionPreMarket   MarketSession = "PRE"
	SessionAfterMarket MarketSession = "POST"
	SessionDuring      MarketSession = "DURING"
	SessionUnspecified MarketSession = "UNSPECIFIED"
)

// EarningsStatus is the publication state of a report
type EarningsStatus string

const (
	EarningsConfirmed EarningsStatus = "CONFIRMED"
	EarningsTentative EarningsStatus = "TENTATIVE"
	EarningsEstimated EarningsStatus = "ESTIMATED"
	EarningsReported  EarningsStatus = "REPORTED"
	EarningsDelayed   EarningsStatus = "DELAYED"
	EarningsCancelled EarningsStatus = "CANCELLED"
)

// EarningsReport is one earnings announcement for a company.
// EPSSurprise and RevenueSurprise are derived from the estimate/actual pairs
// and are never set independently of their inputs.
type EarningsReport struct {
	CompanyCIK string
	Symbol     string
	ReportDate time.Time
	ReportTime string // "HH:MM", empty when the source gave no usable time
	Session    MarketSession
	Status     EarningsStatus

	EPSEstimate     *decimal.Decimal
	EPSActual       *decimal.Decimal
	RevenueEstimate *decimal.Decimal
	RevenueActual   *decimal.Decimal

	EPSSurprise     *decimal.Decimal
	RevenueSurprise *decimal.Decimal

	CreatedAt time.Time
}

// Validate checks the report invariants
func (r EarningsReport) Validate() error {
	if !IsValidCIK(r.CompanyCIK) {
		return fmt.Errorf("invalid company CIK %q: must be 10 digits", r.CompanyCIK)
	}
	if r.Symbol == "" {
		return fmt.Errorf("report symbol is required")
	}
	if r.ReportDate.IsZero() {
		return fmt.Errorf("report date is required")
	}
	return nil
}

// CalculateSurprises recomputes the derived surprise fields from the
// estimate/actual pairs. A surprise exists only when both sides of its pair
// are present. Calling this repeatedly is idempotent.
func (r *EarningsReport) CalculateSurprises() {
	r.EPSSurprise = nil
	if r.EPSEstimate != nil && r.EPSActual != nil {
		d := r.EPSActual.Sub(*r.EPSEstimate)
		r.EPSSurprise = &d
	}

	r.RevenueSurprise = nil
	if r.RevenueEstimate != nil && r.RevenueActual != nil {
		d := r.RevenueActual.Sub(*r.RevenueEstimate)
		r.RevenueSurprise = &d
	}
}

// ClassifySession maps a free-text time hint from the calendar source to a
// market session. The source uses phrases like "time-pre-market" /
// "time-after-hours"; matching is a case-insensitive substring check.
func ClassifySession(timeHint string) MarketSession {
	hint := strings.ToLower(timeHint)
	switch {
	case strings.Contains(hint, "before"):
		return SessionPreMarket
	case strings.Contains(hint, "after"):
		return SessionAfterMarket
	default:
		return SessionUnspecified
	}
}

// ParseMetric converts a numeric-as-string API field to a decimal value.
// Absent or falsy strings mean the metric is unset, not zero.
func ParseMetric(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric value %q: %w", raw, err)
	}
	return &d, nil
}

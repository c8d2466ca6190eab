package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCalculateSurprises(t *testing.T) {
	report := EarningsReport{
		CompanyCIK:  "0000320193",
		Symbol:      "AAPL",
		ReportDate:  time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
		EPSEstimate: dec("1.43"),
		EPSActual:   dec("1.52"),
	}

	report.CalculateSurprises()

	require.NotNil(t, report.EPSSurprise)
	assert.True(t, report.EPSSurprise.Equal(decimal.RequireFromString("0.09")),
		"expected 0.09, got %s", report.EPSSurprise)
	assert.Nil(t, report.RevenueSurprise)
}

func TestCalculateSurprisesIsIdempotent(t *testing.T) {
	report := EarningsReport{
		EPSEstimate:     dec("2.00"),
		EPSActual:       dec("1.75"),
		RevenueEstimate: dec("89700"),
		RevenueActual:   dec("90146"),
	}

	report.CalculateSurprises()
	first := *report.EPSSurprise
	firstRev := *report.RevenueSurprise

	report.CalculateSurprises()

	assert.True(t, report.EPSSurprise.Equal(first))
	assert.True(t, report.RevenueSurprise.Equal(firstRev))
	assert.True(t, report.EPSSurprise.Equal(decimal.RequireFromString("-0.25")))
}

func TestCalculateSurprisesClearsStaleValues(t *testing.T) {
	report := EarningsReport{
		EPSEstimate: dec("1.00"),
		EPSActual:   dec("1.10"),
	}
	report.CalculateSurprises()
	require.NotNil(t, report.EPSSurprise)

	// Losing one side of the pair must clear the derived field.
	report.EPSActual = nil
	report.CalculateSurprises()
	assert.Nil(t, report.EPSSurprise)
}

func TestClassifySession(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want MarketSession
	}{
		{
			name: "before market open",
			hint: "time-pre-market (Before Market Open)",
			want: SessionPreMarket,
		},
		{
			name: "after hours",
			hint: "time-after-hours",
			want: SessionAfterMarket,
		},
		{
			name: "uppercase hint",
			hint: "BEFORE MARKET",
			want: SessionPreMarket,
		},
		{
			name: "clock time carries no session cue",
			hint: "16:30",
			want: SessionUnspecified,
		},
		{
			name: "empty",
			hint: "",
			want: SessionUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySession(tt.hint))
		})
	}
}

func TestParseMetric(t *testing.T) {
	v, err := ParseMetric("1.43")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Equal(decimal.RequireFromString("1.43")))

	v, err = ParseMetric("")
	require.NoError(t, err)
	assert.Nil(t, v, "absent string means unset, not zero")

	v, err = ParseMetric("  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseMetric("n/a")
	assert.Error(t, err)
}

func TestEarningsReportValidate(t *testing.T) {
	report := EarningsReport{
		CompanyCIK: "0000320193",
		Symbol:     "AAPL",
		ReportDate: time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, report.Validate())

	bad := report
	bad.CompanyCIK = "320193"
	assert.Error(t, bad.Validate())

	bad = report
	bad.Symbol = ""
	assert.Error(t, bad.Validate())

	bad = report
	bad.ReportDate = time.Time{}
	assert.Error(t, bad.Validate())
}

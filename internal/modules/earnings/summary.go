package earnings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwatch/earnings-scraper/internal/domain"
)

// Summary aggregates a symbol's earnings performance over a period.
type Summary struct {
	Symbol      string
	PeriodStart time.Time
	PeriodEnd   time.Time

	TotalReports    int
	BeatEstimates   int
	MissedEstimates int

	// AverageSurprise is the mean EPS surprise across reports that have
	// one, nil when none do.
	AverageSurprise *decimal.Decimal
}

// NewSummary aggregates reports into a Summary. Reports with no EPS surprise
// count toward the total but not toward beats, misses, or the average.
func NewSummary(reports []domain.EarningsReport, start, end time.Time) Summary {
	s := Summary{
		PeriodStart:  start,
		PeriodEnd:    end,
		TotalReports: len(reports),
	}
	if len(reports) == 0 {
		return s
	}
	s.Symbol = reports[0].Symbol

	sum := decimal.Zero
	n := 0
	for _, r := range reports {
		if r.EPSSurprise == nil {
			continue
		}
		switch r.EPSSurprise.Sign() {
		case 1:
			s.BeatEstimates++
		case -1:
			s.MissedEstimates++
		}
		sum = sum.Add(*r.EPSSurprise)
		n++
	}
	if n > 0 {
		avg := sum.Div(decimal.NewFromInt(int64(n)))
		s.AverageSurprise = &avg
	}
	return s
}

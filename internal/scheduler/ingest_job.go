package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/calendar"
	"github.com/finwatch/earnings-scraper/internal/domain"
)

// IngestSchedule fires after US market close on weekdays (UTC).
const IngestSchedule = "0 30 22 * * MON-FRI"

// Ingester fetches and stores one day's earnings calendar.
type Ingester interface {
	FetchDaily(ctx context.Context, date time.Time) ([]domain.EarningsReport, error)
}

// IngestJob pulls the most recent completed trading day's calendar.
type IngestJob struct {
	ingester Ingester
	cal      *calendar.TradingCalendar
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewIngestJob creates the nightly ingest job.
func NewIngestJob(ingester Ingester, cal *calendar.TradingCalendar, log zerolog.Logger) *IngestJob {
	return &IngestJob{
		ingester: ingester,
		cal:      cal,
		timeout:  30 * time.Minute,
		now:      time.Now,
		log:      log.With().Str("job", "ingest").Logger(),
	}
}

// Name returns the job name
func (j *IngestJob) Name() string {
	return "ingest"
}

// target picks the trading day to ingest: today when it traded, otherwise
// the closest trading day before it.
func (j *IngestJob) target() time.Time {
	d := j.now().UTC().Truncate(24 * time.Hour)
	for !j.cal.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Run ingests the target day's calendar
func (j *IngestJob) Run() error {
	date := j.target()
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	reports, err := j.ingester.FetchDaily(ctx, date)
	if err != nil {
		return fmt.Errorf("ingest for %s failed: %w", date.Format("2006-01-02"), err)
	}

	j.log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("reports", len(reports)).
		Msg("Nightly ingest complete")
	return nil
}

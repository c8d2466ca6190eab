package earnings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/config"
	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/storage"
	"github.com/finwatch/earnings-scraper/internal/storage/csvstore"
	"github.com/finwatch/earnings-scraper/internal/storage/sqlitestore"
)

const dailySuffix = "_earnings.csv"

// Repository persists earnings reports to a master store plus one CSV
// partition per report date. The master store follows the configured
// backend; partitions are always CSV so a single day can be inspected
// or shipped as a flat file.
type Repository struct {
	master   storage.TimeRangeRepository[domain.EarningsReport]
	dailyDir string
	log      zerolog.Logger
}

// NewRepository builds the earnings stores under cfg.EarningsDir().
// db may be nil when the backend is csv.
func NewRepository(cfg *config.Config, db *sqlitestore.DB, log zerolog.Logger) (*Repository, error) {
	dailyDir := filepath.Join(cfg.EarningsDir(), "daily")
	if err := os.MkdirAll(dailyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create daily earnings dir: %w", err)
	}

	var master storage.TimeRangeRepository[domain.EarningsReport]
	var err error
	if cfg.StorageBackend == "sqlite" {
		master, err = sqlitestore.NewTimeRange[domain.EarningsReport](db, "earnings_master", Codec{}, "report_date", log)
	} else {
		master, err = csvstore.NewTimeRange[domain.EarningsReport](
			filepath.Join(cfg.EarningsDir(), "earnings_master.csv"), Codec{}, "report_date", log)
	}
	if err != nil {
		return nil, err
	}

	return &Repository{
		master:   master,
		dailyDir: dailyDir,
		log:      log.With().Str("repo", "earnings").Logger(),
	}, nil
}

// Master exposes the master store for range queries and maintenance.
func (r *Repository) Master() storage.TimeRangeRepository[domain.EarningsReport] {
	return r.master
}

// DailyStore opens the CSV partition for one report date, creating it if
// needed.
func (r *Repository) DailyStore(date time.Time) (*csvstore.Store[domain.EarningsReport], error) {
	path := filepath.Join(r.dailyDir, date.Format(dateFormat)+dailySuffix)
	return csvstore.New[domain.EarningsReport](path, Codec{}, r.log)
}

// DailyDates lists the report dates that have a partition file, sorted
// ascending.
func (r *Repository) DailyDates() ([]time.Time, error) {
	entries, err := os.ReadDir(r.dailyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily earnings dir: %w", err)
	}

	var dates []time.Time
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, dailySuffix) {
			continue
		}
		d, err := time.Parse(dateFormat, strings.TrimSuffix(name, dailySuffix))
		if err != nil {
			r.log.Warn().Str("file", name).Msg("Skipping unrecognized file in daily dir")
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// AddDailyReport writes a report to its date partition and then to the
// master store. The writes are independent; a master failure leaves the
// partition row in place.
func (r *Repository) AddDailyReport(date time.Time, report domain.EarningsReport) error {
	daily, err := r.DailyStore(date)
	if err != nil {
		return fmt.Errorf("failed to add daily report: %w", err)
	}
	if err := daily.Add(report); err != nil {
		return fmt.Errorf("failed to add daily report: %w", err)
	}
	if err := r.master.Add(report); err != nil {
		return fmt.Errorf("failed to add daily report: %w", err)
	}
	return nil
}

// GetBySymbol returns the master reports for one symbol, narrowed to a date
// range when both bounds are given.
func (r *Repository) GetBySymbol(symbol string, start, end *time.Time) ([]domain.EarningsReport, error) {
	var (
		all []domain.EarningsReport
		err error
	)
	if start != nil && end != nil {
		all, err = r.master.GetByDateRange(*start, *end)
	} else {
		all, err = r.master.GetAll()
	}
	if err != nil {
		return nil, err
	}

	want := domain.NormalizeSymbol(symbol)
	var out []domain.EarningsReport
	for _, rep := range all {
		if domain.NormalizeSymbol(rep.Symbol) == want {
			out = append(out, rep)
		}
	}
	return out, nil
}

// GetSummary aggregates a symbol's reports over a range, or nil when the
// range holds none.
func (r *Repository) GetSummary(symbol string, start, end time.Time) (*Summary, error) {
	reports, err := r.GetBySymbol(symbol, &start, &end)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}
	s := NewSummary(reports, start, end)
	return &s, nil
}

// LatestReportDate returns the most recent report date in the master store,
// or nil when it is empty.
func (r *Repository) LatestReportDate() (*time.Time, error) {
	all, err := r.master.GetAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	latest := all[0].ReportDate
	for _, rep := range all[1:] {
		if rep.ReportDate.After(latest) {
			latest = rep.ReportDate
		}
	}
	return &latest, nil
}

// MissingDates returns every calendar date in [start, end] with no master
// report.
func (r *Repository) MissingDates(start, end time.Time) ([]time.Time, error) {
	reports, err := r.master.GetByDateRange(start, end)
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(reports))
	for _, rep := range reports {
		have[rep.ReportDate.Format(dateFormat)] = struct{}{}
	}

	var missing []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := have[d.Format(dateFormat)]; !ok {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

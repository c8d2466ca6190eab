// Package maintenance holds the offline integrity and repair tasks for the
// scraper's stores.
package maintenance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/modules/earnings"
	"github.com/finwatch/earnings-scraper/internal/storage"
)

// StaleAfter is how old the newest report may be before the data counts as
// stale.
const StaleAfter = 7 * 24 * time.Hour

// Maintenance runs integrity checks and repairs over the company and
// earnings stores.
type Maintenance struct {
	companies storage.Repository[domain.Company]
	earnings  *earnings.Repository
	log       zerolog.Logger
}

// New creates a maintenance runner.
func New(companies storage.Repository[domain.Company], earnings *earnings.Repository, log zerolog.Logger) *Maintenance {
	return &Maintenance{
		companies: companies,
		earnings:  earnings,
		log:       log.With().Str("component", "maintenance").Logger(),
	}
}

// ValidateIntegrity checks the stores and returns a human-readable issue per
// problem found. An empty slice means the data is healthy.
func (m *Maintenance) ValidateIntegrity() ([]string, error) {
	var issues []string

	all, err := m.companies.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load companies: %w", err)
	}

	var active []domain.Company
	for _, c := range all {
		if c.Status == domain.StatusActive {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		issues = append(issues, "no active companies found")
	}

	var badCIKs []string
	seen := make(map[string]bool, len(active))
	dupes := false
	for _, c := range active {
		if !domain.IsValidCIK(c.CIK) {
			badCIKs = append(badCIKs, c.Symbol)
		}
		if seen[c.Symbol] {
			dupes = true
		}
		seen[c.Symbol] = true
	}
	if len(badCIKs) > 0 {
		sort.Strings(badCIKs)
		issues = append(issues, fmt.Sprintf("invalid CIK format for symbols: %s", strings.Join(badCIKs, ", ")))
	}
	if dupes {
		issues = append(issues, "duplicate symbols found in company store")
	}

	latest, err := m.earnings.LatestReportDate()
	if err != nil {
		return nil, fmt.Errorf("failed to read earnings store: %w", err)
	}
	switch {
	case latest == nil:
		issues = append(issues, "no earnings data found")
	case time.Since(*latest) > StaleAfter:
		issues = append(issues, fmt.Sprintf("earnings data may be stale, latest report date %s", latest.Format("2006-01-02")))
	}

	return issues, nil
}

// RemoveDuplicates drops master rows that share a (symbol, report date)
// identity, keeping the first occurrence of each. It returns the number of
// rows removed.
func (m *Maintenance) RemoveDuplicates() (int, error) {
	master := m.earnings.Master()
	all, err := master.GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load earnings master: %w", err)
	}

	var codec earnings.Codec
	first := make(map[string]domain.EarningsReport)
	count := make(map[string]int)
	var order []string
	for _, rep := range all {
		key := codec.Key(rep)
		if count[key] == 0 {
			first[key] = rep
			order = append(order, key)
		}
		count[key]++
	}

	removed := 0
	for _, key := range order {
		if count[key] < 2 {
			continue
		}
		// Delete drops every row under the key; re-add the kept copy.
		if _, err := master.Delete(key); err != nil {
			return removed, fmt.Errorf("failed to remove duplicates for %s: %w", key, err)
		}
		if err := master.Add(first[key]); err != nil {
			return removed, fmt.Errorf("failed to restore record for %s: %w", key, err)
		}
		removed += count[key] - 1
		m.log.Debug().Str("key", key).Int("copies", count[key]).Msg("Deduplicated earnings record")
	}

	m.log.Info().Int("removed", removed).Msg("Duplicate cleanup complete")
	return removed, nil
}

// RebuildDaily rewrites every daily partition from the master store. Stale
// partitions whose date no longer appears in the master are emptied. It
// returns the number of partitions written.
func (m *Maintenance) RebuildDaily() (int, error) {
	all, err := m.earnings.Master().GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load earnings master: %w", err)
	}

	byDate := make(map[string][]domain.EarningsReport)
	for _, rep := range all {
		day := rep.ReportDate.Format("2006-01-02")
		byDate[day] = append(byDate[day], rep)
	}

	// Empty partitions for dates the master no longer covers.
	existing, err := m.earnings.DailyDates()
	if err != nil {
		return 0, err
	}
	for _, d := range existing {
		if _, ok := byDate[d.Format("2006-01-02")]; ok {
			continue
		}
		store, err := m.earnings.DailyStore(d)
		if err != nil {
			return 0, err
		}
		if err := store.Truncate(); err != nil {
			return 0, fmt.Errorf("failed to empty stale partition: %w", err)
		}
	}

	rebuilt := 0
	for day, reports := range byDate {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return rebuilt, err
		}
		store, err := m.earnings.DailyStore(date)
		if err != nil {
			return rebuilt, err
		}
		if err := store.Truncate(); err != nil {
			return rebuilt, fmt.Errorf("failed to rewrite partition for %s: %w", day, err)
		}
		if err := store.AddMany(reports); err != nil {
			return rebuilt, fmt.Errorf("failed to rewrite partition for %s: %w", day, err)
		}
		rebuilt++
	}

	m.log.Info().Int("partitions", rebuilt).Msg("Daily partition rebuild complete")
	return rebuilt, nil
}

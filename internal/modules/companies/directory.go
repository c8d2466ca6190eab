package companies

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/finwatch/earnings-scraper/internal/clients/sec"
	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/storage"
)

// DefaultCacheTTL is how long a directory snapshot stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// TickerSource provides the SEC registrant mapping.
type TickerSource interface {
	GetCompanyTickers(ctx context.Context) (map[string]sec.CompanyTicker, error)
}

// SyncResult summarizes one directory sync run.
type SyncResult struct {
	Fetched    int
	Added      int
	Skipped    int
	Failed     int
	NewSymbols []string
}

// Directory is a read-through symbol index over the company master store.
// Lookups hit an in-memory snapshot that is rebuilt at most once per TTL;
// concurrent refreshes collapse into a single repository read.
type Directory struct {
	repo storage.Repository[domain.Company]
	ttl  time.Duration
	log  zerolog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	bySymbol map[string]domain.Company
	loadedAt time.Time
}

// NewDirectory creates a directory over repo. A ttl of zero uses
// DefaultCacheTTL.
func NewDirectory(repo storage.Repository[domain.Company], ttl time.Duration, log zerolog.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Directory{
		repo: repo,
		ttl:  ttl,
		log:  log.With().Str("component", "company-directory").Logger(),
	}
}

func (d *Directory) fresh() (map[string]domain.Company, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.bySymbol == nil || time.Since(d.loadedAt) >= d.ttl {
		return nil, false
	}
	return d.bySymbol, true
}

func (d *Directory) snapshot(ctx context.Context) (map[string]domain.Company, error) {
	if m, ok := d.fresh(); ok {
		return m, nil
	}

	v, err, _ := d.group.Do("refresh", func() (any, error) {
		// A racing caller may have refreshed while we waited on the flight.
		if m, ok := d.fresh(); ok {
			return m, nil
		}

		all, err := d.repo.GetAll()
		if err != nil {
			return nil, fmt.Errorf("failed to load company directory: %w", err)
		}

		m := make(map[string]domain.Company, len(all))
		for _, c := range all {
			m[domain.NormalizeSymbol(c.Symbol)] = c
		}

		d.mu.Lock()
		d.bySymbol = m
		d.loadedAt = time.Now()
		d.mu.Unlock()

		d.log.Debug().Int("companies", len(m)).Msg("Refreshed company directory")
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.(map[string]domain.Company), nil
}

// Invalidate forces the next lookup to reload from the repository.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.bySymbol = nil
	d.mu.Unlock()
}

// Get returns the company listed under a symbol, or nil when unknown.
func (d *Directory) Get(ctx context.Context, symbol string) (*domain.Company, error) {
	m, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := m[domain.NormalizeSymbol(symbol)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// GetCIK resolves a symbol to its 10-digit CIK, or "" when unknown.
func (d *Directory) GetCIK(ctx context.Context, symbol string) (string, error) {
	c, err := d.Get(ctx, symbol)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", nil
	}
	return c.CIK, nil
}

// Validate reports whether a symbol is present in the directory.
func (d *Directory) Validate(ctx context.Context, symbol string) (bool, error) {
	c, err := d.Get(ctx, symbol)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// ValidateSymbols checks a batch of symbols against the directory in one
// snapshot read.
func (d *Directory) ValidateSymbols(ctx context.Context, symbols []string) (map[string]bool, error) {
	m, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		_, ok := m[domain.NormalizeSymbol(s)]
		out[s] = ok
	}
	return out, nil
}

// ActiveCompanies returns every company whose status is ACTIVE.
func (d *Directory) ActiveCompanies(ctx context.Context) ([]domain.Company, error) {
	m, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Company, 0, len(m))
	for _, c := range m {
		if c.Status == domain.StatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

// SyncFromSEC pulls the SEC registrant mapping and adds every company the
// master store does not yet list under its symbol. Rows that cannot be
// shaped into a valid company are counted and skipped, never fatal.
func (d *Directory) SyncFromSEC(ctx context.Context, src TickerSource) (SyncResult, error) {
	var res SyncResult

	tickers, err := src.GetCompanyTickers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to sync company directory: %w", err)
	}
	res.Fetched = len(tickers)

	existing, err := d.snapshot(ctx)
	if err != nil {
		return res, err
	}

	added := false
	for _, t := range tickers {
		if t.Ticker == "" {
			d.log.Warn().Str("cik", t.CIK.String()).Msg("Skipping registrant without ticker")
			res.Failed++
			continue
		}
		if _, ok := existing[domain.NormalizeSymbol(t.Ticker)]; ok {
			res.Skipped++
			continue
		}

		company, err := domain.NewCompany(t.CIK.String(), t.Ticker, t.Title)
		if err != nil {
			d.log.Warn().Err(err).Str("ticker", t.Ticker).Msg("Skipping malformed registrant")
			res.Failed++
			continue
		}

		if err := d.repo.Add(company); err != nil {
			var dup *storage.DuplicateKeyError
			if errors.As(err, &dup) {
				// Same CIK already stored under another symbol.
				res.Skipped++
				continue
			}
			d.log.Error().Err(err).Str("ticker", t.Ticker).Msg("Failed to store company")
			res.Failed++
			continue
		}
		res.Added++
		res.NewSymbols = append(res.NewSymbols, company.Symbol)
		added = true
	}

	if added {
		d.Invalidate()
	}

	d.log.Info().
		Int("fetched", res.Fetched).
		Int("added", res.Added).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Company directory sync complete")
	return res, nil
}

package companies

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/earnings-scraper/internal/clients/sec"
	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/storage"
	"github.com/finwatch/earnings-scraper/internal/storage/csvstore"
)

type fakeTickerSource struct {
	tickers map[string]sec.CompanyTicker
	err     error
	calls   int
}

func (f *fakeTickerSource) GetCompanyTickers(ctx context.Context) (map[string]sec.CompanyTicker, error) {
	f.calls++
	return f.tickers, f.err
}

func newTestRepo(t *testing.T) storage.Repository[domain.Company] {
	t.Helper()
	repo, err := csvstore.New[domain.Company](filepath.Join(t.TempDir(), "companies.csv"), Codec{}, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func ticker(cik, symbol, title string) sec.CompanyTicker {
	return sec.CompanyTicker{CIK: json.Number(cik), Ticker: symbol, Title: title}
}

func TestSyncFromSECAddsNewCompanies(t *testing.T) {
	repo := newTestRepo(t)
	dir := NewDirectory(repo, 0, zerolog.Nop())
	src := &fakeTickerSource{tickers: map[string]sec.CompanyTicker{
		"0": ticker("320193", "AAPL", "Apple Inc."),
		"1": ticker("789019", "MSFT", "MICROSOFT CORP"),
	}}

	res, err := dir.SyncFromSEC(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Added)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, res.NewSymbols)

	c, err := dir.Get(context.Background(), "aapl")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "0000320193", c.CIK)
	assert.Equal(t, "Apple Inc.", c.Name)
	assert.Equal(t, domain.StatusActive, c.Status)
}

func TestSyncFromSECSkipsExistingSymbols(t *testing.T) {
	repo := newTestRepo(t)
	existing, err := domain.NewCompany("320193", "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NoError(t, repo.Add(existing))

	dir := NewDirectory(repo, 0, zerolog.Nop())
	src := &fakeTickerSource{tickers: map[string]sec.CompanyTicker{
		"0": ticker("320193", "AAPL", "Apple Inc."),
		"1": ticker("1045810", "NVDA", "NVIDIA CORP"),
	}}

	res, err := dir.SyncFromSEC(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"NVDA"}, res.NewSymbols)

	// Running the same sync again is a no-op.
	res, err = dir.SyncFromSEC(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.NewSymbols)
}

func TestSyncFromSECSkipsMalformedRegistrants(t *testing.T) {
	repo := newTestRepo(t)
	dir := NewDirectory(repo, 0, zerolog.Nop())
	src := &fakeTickerSource{tickers: map[string]sec.CompanyTicker{
		"0": ticker("320193", "", "No Ticker Corp"),
		"1": ticker("not-a-cik", "BAD", "Bad CIK Corp"),
		"2": ticker("789019", "MSFT", "MICROSOFT CORP"),
	}}

	res, err := dir.SyncFromSEC(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, []string{"MSFT"}, res.NewSymbols)
}

func TestValidateSymbolsBatch(t *testing.T) {
	repo := newTestRepo(t)
	c, err := domain.NewCompany("320193", "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NoError(t, repo.Add(c))

	dir := NewDirectory(repo, 0, zerolog.Nop())
	got, err := dir.ValidateSymbols(context.Background(), []string{"aapl", "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"aapl": true, "NOPE": false}, got)
}

func TestDirectoryNormalizesLookupSymbols(t *testing.T) {
	repo := newTestRepo(t)
	c, err := domain.NewCompany("1067983", "BRK-B", "BERKSHIRE HATHAWAY INC")
	require.NoError(t, err)
	require.NoError(t, repo.Add(c))

	dir := NewDirectory(repo, 0, zerolog.Nop())

	got, err := dir.Get(context.Background(), "brk-b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "BRK.B", got.Symbol)

	cik, err := dir.GetCIK(context.Background(), "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, "0001067983", cik)

	ok, err := dir.Validate(context.Background(), "brk.b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDirectoryMissReturnsNil(t *testing.T) {
	dir := NewDirectory(newTestRepo(t), 0, zerolog.Nop())

	got, err := dir.Get(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)

	cik, err := dir.GetCIK(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, cik)
}

func TestDirectoryCachesUntilInvalidated(t *testing.T) {
	repo := newTestRepo(t)
	dir := NewDirectory(repo, time.Hour, zerolog.Nop())

	got, err := dir.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Added behind the cache's back; the stale snapshot still misses.
	c, err := domain.NewCompany("320193", "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NoError(t, repo.Add(c))

	got, err = dir.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)

	dir.Invalidate()
	got, err = dir.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestActiveCompaniesFiltersByStatus(t *testing.T) {
	repo := newTestRepo(t)
	active, err := domain.NewCompany("320193", "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NoError(t, repo.Add(active))

	delisted, err := domain.NewCompany("1318605", "OLDCO", "Old Co")
	require.NoError(t, err)
	delisted.Status = domain.StatusDelisted
	require.NoError(t, repo.Add(delisted))

	dir := NewDirectory(repo, 0, zerolog.Nop())
	got, err := dir.ActiveCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Symbol)
}

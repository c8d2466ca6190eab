// Package companies maintains the company master list and its symbol
// directory, synced from the SEC registrant mapping.
package companies

import (
	"fmt"
	"time"

	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/storage"
)

// Codec maps domain.Company onto tabular rows keyed by CIK.
type Codec struct{}

var columns = []string{
	"cik", "symbol", "name", "exchange", "status",
	"sector", "industry", "created_at", "updated_at",
}

func (Codec) Columns() []string { return columns }

func (Codec) Key(rec domain.Company) string { return rec.CIK }

// NormalizeKey pads unprefixed numeric CIKs so lookups by "320193" and
// "0000320193" hit the same record.
func (Codec) NormalizeKey(key string) string {
	if formatted, err := domain.FormatCIK(key); err == nil {
		return formatted
	}
	return key
}

func (Codec) Encode(rec domain.Company) ([]string, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	updated := ""
	if rec.UpdatedAt != nil {
		updated = storage.FormatTimestamp(*rec.UpdatedAt)
	}
	return []string{
		rec.CIK,
		rec.Symbol,
		rec.Name,
		string(rec.Exchange),
		string(rec.Status),
		rec.Sector,
		rec.Industry,
		storage.FormatTimestamp(rec.CreatedAt),
		updated,
	}, nil
}

func (Codec) Decode(row []string) (domain.Company, error) {
	if len(row) != len(columns) {
		return domain.Company{}, fmt.Errorf("company row has %d columns, want %d", len(row), len(columns))
	}

	created, err := storage.ParseTimestamp(row[7])
	if err != nil {
		return domain.Company{}, fmt.Errorf("invalid created_at: %w", err)
	}
	var updated *time.Time
	if row[8] != "" {
		ts, err := storage.ParseTimestamp(row[8])
		if err != nil {
			return domain.Company{}, fmt.Errorf("invalid updated_at: %w", err)
		}
		updated = &ts
	}

	// No Validate here: reads stay tolerant so maintenance can surface
	// malformed rows instead of failing to load them.
	return domain.Company{
		CIK:       row[0],
		Symbol:    row[1],
		Name:      row[2],
		Exchange:  domain.Exchange(row[3]),
		Status:    domain.CompanyStatus(row[4]),
		Sector:    row[5],
		Industry:  row[6],
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

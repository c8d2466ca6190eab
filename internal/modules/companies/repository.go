package companies

import (
	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/config"
	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/storage"
	"github.com/finwatch/earnings-scraper/internal/storage/csvstore"
	"github.com/finwatch/earnings-scraper/internal/storage/sqlitestore"
)

// NewRepository builds the company master store on the configured backend.
// db may be nil when the backend is csv.
func NewRepository(cfg *config.Config, db *sqlitestore.DB, log zerolog.Logger) (storage.Repository[domain.Company], error) {
	if cfg.StorageBackend == "sqlite" {
		return sqlitestore.New[domain.Company](db, "companies", Codec{}, log)
	}
	return csvstore.New[domain.Company](cfg.CompaniesFile(), Codec{}, log)
}

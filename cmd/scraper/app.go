package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/archive"
	"github.com/finwatch/earnings-scraper/internal/calendar"
	"github.com/finwatch/earnings-scraper/internal/clients/nasdaq"
	"github.com/finwatch/earnings-scraper/internal/clients/sec"
	"github.com/finwatch/earnings-scraper/internal/config"
	"github.com/finwatch/earnings-scraper/internal/domain"
	"github.com/finwatch/earnings-scraper/internal/modules/companies"
	"github.com/finwatch/earnings-scraper/internal/modules/earnings"
	"github.com/finwatch/earnings-scraper/internal/storage"
	"github.com/finwatch/earnings-scraper/internal/storage/sqlitestore"
)

// app wires the clients, stores, and services every command works with.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	db        *sqlitestore.DB
	companies storage.Repository[domain.Company]
	directory *companies.Directory
	earnings  *earnings.Repository

	secClient    *sec.Client
	nasdaqClient *nasdaq.Client
	service      *earnings.Service
}

func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	if cfg.StorageBackend == "sqlite" {
		db, err := sqlitestore.Open(cfg.DatabaseFile())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.db = db
	}

	companyRepo, err := companies.NewRepository(cfg, a.db, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.companies = companyRepo
	a.directory = companies.NewDirectory(companyRepo, companies.DefaultCacheTTL, log)

	earningsRepo, err := earnings.NewRepository(cfg, a.db, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.earnings = earningsRepo

	arch, err := archive.New(cfg.RawNasdaqDir(), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.secClient = sec.New(cfg, log)
	a.nasdaqClient = nasdaq.New(cfg, log)
	a.service = earnings.NewService(a.nasdaqClient, a.directory, earningsRepo, calendar.New(), arch, log)

	return a, nil
}

func (a *app) Close() {
	if a.secClient != nil {
		a.secClient.Close()
	}
	if a.nasdaqClient != nil {
		a.nasdaqClient.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error().Err(err).Msg("Failed to close database")
		}
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finwatch/earnings-scraper/internal/calendar"
	"github.com/finwatch/earnings-scraper/internal/scheduler"
	"github.com/finwatch/earnings-scraper/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the collected data over HTTP with nightly ingestion",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := scheduler.New(log)
		ingest := scheduler.NewIngestJob(a.service, calendar.New(), log)
		if err := sched.AddJob(scheduler.IngestSchedule, ingest); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		srv := server.New(server.Config{
			Port:      cfg.Port,
			Log:       log,
			Directory: a.directory,
			Earnings:  a.earnings,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		log.Info().Int("port", cfg.Port).Msg("Server started")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		log.Info().Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/finwatch/earnings-scraper/internal/config"
	"github.com/finwatch/earnings-scraper/pkg/logger"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "SEC and NASDAQ earnings data scraper",
	Long: `Collects the SEC company directory and the NASDAQ earnings calendar
into local stores, keeps them maintained, and serves them over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.LogLevel = lvl
		}

		log = logger.New(logger.Config{
			Level:  cfg.LogLevel,
			Pretty: cfg.LogPretty,
		})
		logger.SetGlobalLogger(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(syncCompaniesCmd)
	rootCmd.AddCommand(maintainCmd)
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch earnings calendars for a date range",
	Long: `Syncs the company directory from SEC, then walks the trading days in
the requested range and ingests each day's NASDAQ earnings calendar.
Without --start the range is the last --days-back days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		skipSync, _ := cmd.Flags().GetBool("skip-company-sync")
		if !skipSync {
			log.Info().Msg("Syncing company directory")
			res, err := a.directory.SyncFromSEC(cmd.Context(), a.secClient)
			if err != nil {
				return err
			}
			if len(res.NewSymbols) > 0 {
				log.Info().Strs("symbols", res.NewSymbols).Msg("Added new companies")
			}
		}

		start, end, err := resolveRange(cmd)
		if err != nil {
			return err
		}

		result, err := a.service.UpdateRange(cmd.Context(), start, end)
		if err != nil {
			return err
		}

		log.Info().
			Int("reports", result.TotalReports()).
			Int("dates", len(result.Counts)).
			Msg("Scrape complete")
		if len(result.ZeroDates) > 0 {
			log.Warn().
				Str("dates", strings.Join(result.ZeroDates, ", ")).
				Msg("No data found for some dates")
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	scrapeCmd.Flags().String("end", "", "end date (YYYY-MM-DD, default today)")
	scrapeCmd.Flags().Int("days-back", 30, "days to look back when --start is not given")
	scrapeCmd.Flags().Bool("skip-company-sync", false, "skip syncing the company directory first")
}

func resolveRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	parse := func(flag string) (time.Time, error) {
		raw, _ := cmd.Flags().GetString(flag)
		if raw == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --%s: %w", flag, err)
		}
		return t, nil
	}

	start, err := parse("start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parse("end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if end.IsZero() {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if start.IsZero() {
		daysBack, _ := cmd.Flags().GetInt("days-back")
		start = end.AddDate(0, 0, -daysBack)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s precedes start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

package main

import (
	"github.com/spf13/cobra"
)

var syncCompaniesCmd = &cobra.Command{
	Use:   "sync-companies",
	Short: "Sync the company directory from SEC",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.directory.SyncFromSEC(cmd.Context(), a.secClient)
		if err != nil {
			return err
		}

		if len(res.NewSymbols) > 0 {
			log.Info().Strs("symbols", res.NewSymbols).Msg("Added new companies")
		} else {
			log.Info().Msg("No new companies found")
		}
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finwatch/earnings-scraper/internal/maintenance"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run maintenance tasks on the data stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		validate, _ := cmd.Flags().GetBool("validate")
		cleanDuplicates, _ := cmd.Flags().GetBool("clean-duplicates")
		rebuildDaily, _ := cmd.Flags().GetBool("rebuild-daily")
		if !validate && !cleanDuplicates && !rebuildDaily {
			return fmt.Errorf("nothing to do: pass --validate, --clean-duplicates, or --rebuild-daily")
		}

		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		m := maintenance.New(a.companies, a.earnings, log)

		if validate {
			log.Info().Msg("Validating data integrity")
			issues, err := m.ValidateIntegrity()
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				log.Info().Msg("No data integrity issues found")
			}
			for _, issue := range issues {
				log.Warn().Str("issue", issue).Msg("Data integrity issue")
			}
		}

		if cleanDuplicates {
			log.Info().Msg("Removing duplicate entries")
			removed, err := m.RemoveDuplicates()
			if err != nil {
				return err
			}
			log.Info().Int("removed", removed).Msg("Removed duplicate entries")
		}

		if rebuildDaily {
			log.Info().Msg("Rebuilding daily earnings files")
			rebuilt, err := m.RebuildDaily()
			if err != nil {
				return err
			}
			log.Info().Int("files", rebuilt).Msg("Rebuilt daily files")
		}

		log.Info().Msg("Maintenance completed successfully")
		return nil
	},
}

func init() {
	maintainCmd.Flags().Bool("validate", false, "validate data integrity")
	maintainCmd.Flags().Bool("clean-duplicates", false, "remove duplicate earnings entries")
	maintainCmd.Flags().Bool("rebuild-daily", false, "rebuild daily earnings files from the master store")
}

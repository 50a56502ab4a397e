package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernapp/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export learner progress as a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		learner := learnerFlag(cmd)
		sum, records, err := a.Service.Statistics(cmd.Context(), learner)
		if err != nil {
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		if err := report.WriteProgress(f, learner, records, sum, time.Now()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d records to %s\n", len(records), args[0])
		return nil
	},
}

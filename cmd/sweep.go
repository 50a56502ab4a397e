package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Time out idle sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Sweeper.Start(ctx)
		}

		n, err := a.Sweeper.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Timed out %d sessions.\n", n)
		return nil
	},
}

func init() {
	sweepCmd.Flags().Bool("watch", false, "Keep running and sweep on the configured cron schedule")
}

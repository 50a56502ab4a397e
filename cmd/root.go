package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernapp/internal/app"
	"github.com/abhisek/lernapp/internal/config"
	"github.com/abhisek/lernapp/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "lernapp",
	Short:        "Adaptive learning engine",
	Long:         "lernapp tracks per-question mastery, schedules spaced reviews and runs practice, review and exam sessions.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN: SQLite file path or Postgres URL (overrides LERNAPP_DB_DSN)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("learner", "default", "Learner id")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(versionCmd)
}

// openApp loads configuration and wires the application. The --db flag
// takes priority over the config file and the environment.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	dsn, _ := cmd.Flags().GetString("db")
	return app.New(cmd.Context(), cfg, log, app.Options{DSN: dsn})
}

func learnerFlag(cmd *cobra.Command) string {
	id, _ := cmd.Flags().GetString("learner")
	return id
}

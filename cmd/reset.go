package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <topic-id>",
	Short: "Reset the learner's mastery for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Service.ResetTopic(cmd.Context(), learnerFlag(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Reset %d records in topic %s.\n", n, args[0])
		return nil
	},
}

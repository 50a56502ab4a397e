package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the learner's recent answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.Backend.Events.History(cmd.Context(), learnerFlag(cmd), sessionID, limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No answers recorded.")
			return nil
		}
		fmt.Printf("%-19s  %-30s  %-18s  %-7s  %s\n", "Answered", "Question", "Kind", "Result", "Time")
		for _, e := range events {
			result := "wrong"
			if e.Correct {
				result = "correct"
			}
			if !e.First {
				result += "*"
			}
			fmt.Printf("%-19s  %-30s  %-18s  %-7s  %s\n",
				e.AnsweredAt.Local().Format(time.DateTime), e.QuestionID, e.Kind, result,
				e.ResponseTime.Round(100*time.Millisecond))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("session", "", "Only show answers from this session")
	historyCmd.Flags().Int("limit", 20, "Number of most recent answers to show (0 for all)")
}

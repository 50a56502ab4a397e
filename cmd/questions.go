package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernapp/internal/questionpool"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage the question pool",
}

var questionsAddCmd = &cobra.Command{
	Use:   "add <question-id> <topic-id> <difficulty>",
	Short: "Add or update a question (difficulty: easy, medium, hard, expert)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := questionpool.ParseDifficulty(args[2])
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		q := questionpool.Question{ID: args[0], TopicID: args[1], Difficulty: d}
		if err := a.Backend.Questions.Put(cmd.Context(), q); err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s, %s)\n", q.ID, q.TopicID, q.Difficulty)
		return nil
	},
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions (optionally filtered by topic or difficulty)",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		diffName, _ := cmd.Flags().GetString("difficulty")

		var f questionpool.Filter
		f.TopicID = topic
		if diffName != "" {
			d, err := questionpool.ParseDifficulty(diffName)
			if err != nil {
				return err
			}
			f.Difficulty = d
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		qs, err := a.Backend.Questions.Query(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Printf("%-30s  %-24s  %s\n", "ID", "Topic", "Difficulty")
		for _, q := range qs {
			fmt.Printf("%-30s  %-24s  %s\n", q.ID, q.TopicID, q.Difficulty)
		}
		fmt.Printf("\n%d questions\n", len(qs))
		return nil
	},
}

func init() {
	questionsListCmd.Flags().String("topic", "", "Filter by topic")
	questionsListCmd.Flags().String("difficulty", "", "Filter by difficulty")

	questionsCmd.AddCommand(questionsAddCmd)
	questionsCmd.AddCommand(questionsListCmd)
}

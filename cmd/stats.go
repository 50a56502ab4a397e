package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/progression"
	"github.com/abhisek/lernapp/internal/spacedrep"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		learner := learnerFlag(cmd)
		sum, _, err := a.Service.Statistics(ctx, learner)
		if err != nil {
			return err
		}
		points, err := a.Backend.Profiles.TotalPoints(ctx, learner)
		if err != nil {
			return err
		}

		fmt.Printf("Learner:     %s\n", learner)
		fmt.Printf("Points:      %d (level %d)\n", points, progression.Level(points))
		fmt.Printf("Questions:   %d tracked, %d attempted\n", sum.Tracked, sum.Attempted)
		fmt.Printf("Accuracy:    %.1f%%\n", sum.Accuracy*100)
		fmt.Printf("Confidence:  %.2f\n", sum.AvgConfidence)
		fmt.Printf("Due now:     %d\n", sum.Due)
		fmt.Printf("Weak:        %d\n", sum.Weak)
		fmt.Printf("Time spent:  %s\n", sum.TotalTime.Round(time.Second))
		fmt.Printf("Response:    mean %.1fs, median %.1fs, p90 %.1fs\n",
			sum.ResponseMean, sum.ResponseMedian, sum.ResponseP90)

		fmt.Println()
		for _, l := range mastery.Levels {
			fmt.Printf("  %-10s %d\n", l, sum.Levels[l])
		}

		if len(sum.Topics) > 0 {
			fmt.Println()
			fmt.Printf("%-24s  %9s  %9s  %8s  %10s  %9s  %8s\n",
				"Topic", "Questions", "Attempted", "Mastered", "Completion", "Mastery", "Accuracy")
			fmt.Println(strings.Repeat("─", 90))
			for _, t := range sum.Topics {
				fmt.Printf("%-24s  %9d  %9d  %8d  %9.1f%%  %8.1f%%  %7.1f%%\n",
					t.TopicID, t.Questions, t.Attempted, t.Mastered,
					t.CompletionPct, t.MasteryPct, t.Accuracy*100)
			}
		}
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List questions due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		due, err := a.Service.DueReviews(cmd.Context(), learnerFlag(cmd))
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println("Nothing due.")
			return nil
		}
		now := time.Now()
		fmt.Printf("%-30s  %-20s  %-10s  %10s  %s\n", "Question", "Topic", "Level", "Confidence", "Overdue (days)")
		for _, r := range due {
			fmt.Printf("%-30s  %-20s  %-10s  %10.2f  %.1f\n",
				r.QuestionID, r.TopicID, r.Level, r.Confidence, spacedrep.OverdueDays(r, now))
		}
		return nil
	},
}

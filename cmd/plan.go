package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernapp/internal/session"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the questions a session would receive",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := sessionRequest(cmd)
		if err != nil {
			return err
		}
		plan, err := a.Service.Planner().Plan(cmd.Context(), session.Request{
			LearnerID: req.LearnerID,
			Kind:      req.Kind,
			Count:     req.Count,
			TopicID:   req.TopicID,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Kind:    %s\n", plan.Kind)
		fmt.Printf("Target:  %d (requested %d)\n", plan.Target, plan.Requested)
		if plan.Partial {
			fmt.Printf("Partial: only %d questions available\n", len(plan.QuestionIDs))
		}
		for i, id := range plan.QuestionIDs {
			fmt.Printf("%3d. %s\n", i+1, id)
		}
		return nil
	},
}

// sessionRequest reads the shared --kind, --count and --topic flags.
func sessionRequest(cmd *cobra.Command) (session.CreateRequest, error) {
	kindName, _ := cmd.Flags().GetString("kind")
	count, _ := cmd.Flags().GetInt("count")
	topic, _ := cmd.Flags().GetString("topic")

	kind, err := session.ParseKind(kindName)
	if err != nil {
		return session.CreateRequest{}, err
	}
	return session.CreateRequest{
		LearnerID: learnerFlag(cmd),
		Kind:      kind,
		Count:     count,
		TopicID:   topic,
	}, nil
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "practice", "Session kind: practice, review, weakness, exam or quick")
	cmd.Flags().Int("count", 10, "Number of questions")
	cmd.Flags().String("topic", "", "Restrict to one topic")
}

func init() {
	addRequestFlags(planCmd)
}

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernapp/internal/session"
	"github.com/abhisek/lernapp/internal/spacedrep"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create and drive learning sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Plan and create a new session",
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
		sess, plan, err := a.Service.Create(cmd.Context(), req)
		if err != nil {
			return err
		}
		if plan.Partial {
			fmt.Printf("Only %d of %d questions available.\n", len(plan.QuestionIDs), plan.Target)
		}
		printSession(sess)
		return nil
	},
}

type sessionOp func(svc *session.Service, ctx context.Context, id string) (*session.Session, error)

// transition builds a subcommand that applies op to the session named by
// its single argument.
func transition(use, short string, op sessionOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := op(a.Service, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSession(sess)
			return nil
		},
	}
}

var (
	sessionStartCmd    = transition("start", "Start a session", (*session.Service).Start)
	sessionPauseCmd    = transition("pause", "Pause a running session", (*session.Service).Pause)
	sessionResumeCmd   = transition("resume", "Resume a paused session", (*session.Service).Resume)
	sessionCompleteCmd = transition("complete", "Complete a session and score it", (*session.Service).Complete)
	sessionAbandonCmd  = transition("abandon", "Abandon a session without scoring", (*session.Service).Abandon)
	sessionShowCmd     = transition("show", "Show a session", (*session.Service).Get)
)

var sessionAnswerCmd = &cobra.Command{
	Use:   "answer <session-id> <question-id> <correct>",
	Short: "Record an answer",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		correct, err := strconv.ParseBool(args[2])
		if err != nil {
			return fmt.Errorf("correct must be true or false: %w", err)
		}
		rt, _ := cmd.Flags().GetDuration("time")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, rec, err := a.Service.SubmitAnswer(cmd.Context(), args[0], args[1], correct, rt)
		if err != nil {
			return err
		}
		printSession(sess)
		if rec != nil {
			next := "-"
			if rec.NextReviewAt != nil {
				next = fmt.Sprintf("%s, in %d days", rec.NextReviewAt.Local().Format(time.DateOnly),
					spacedrep.DaysUntilReview(*rec, time.Now()))
			}
			fmt.Printf("Mastery:  %s (confidence %.2f, streak %d, next review %s)\n",
				rec.Level, rec.Confidence, rec.CorrectStreak, next)
		}
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the learner's recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := a.Backend.Sessions.ListByLearner(cmd.Context(), learnerFlag(cmd), limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}
		fmt.Printf("%-36s  %-18s  %-12s  %8s  %s\n", "ID", "Kind", "Status", "Answered", "Created")
		for _, s := range sessions {
			fmt.Printf("%-36s  %-18s  %-12s  %4d/%-3d  %s\n",
				s.ID, s.Kind, s.Status, s.AnsweredCount, len(s.Planned),
				s.CreatedAt.Local().Format(time.DateTime))
		}
		return nil
	},
}

func printSession(s *session.Session) {
	fmt.Printf("Session:  %s\n", s.ID)
	fmt.Printf("Kind:     %s\n", s.Kind)
	fmt.Printf("Status:   %s\n", s.Status)
	fmt.Printf("Progress: %d/%d answered, %d correct\n", s.AnsweredCount, len(s.Planned), s.CorrectCount)
	if s.TimeLimit > 0 {
		fmt.Printf("Limit:    %s\n", s.TimeLimit)
	}
	if r := s.Result; r != nil {
		fmt.Printf("Score:    %.1f (%.1f%%)", r.Score, r.Percentage)
		if r.Grade != "" {
			fmt.Printf(" grade %s", r.Grade)
		}
		fmt.Printf(", %d points\n", r.Points)
	}
}

func init() {
	addRequestFlags(sessionCreateCmd)
	sessionAnswerCmd.Flags().Duration("time", 0, "Response time, e.g. 12s")
	sessionListCmd.Flags().Int("limit", 20, "Maximum sessions to list")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionPauseCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionAnswerCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
	sessionCmd.AddCommand(sessionAbandonCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionListCmd)
}

// Package report exports learner progress as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/spacedrep"
	"github.com/abhisek/lernapp/internal/stats"
)

// Sheet names.
const (
	ProgressSheet = "Progress"
	SummarySheet  = "Summary"
)

var progressHeaders = []any{
	"Question", "Topic", "Level", "Attempts", "Correct", "Incorrect",
	"Streak", "Confidence", "Easiness", "Interval (days)", "Next review", "Status",
}

// WriteProgress writes a workbook with one Progress row per record and a
// Summary sheet built from s.
func WriteProgress(w io.Writer, learnerID string, records []mastery.Record, s stats.Summary, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ProgressSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeProgress(f, records, now); err != nil {
		return err
	}

	idx, err := f.NewSheet(SummarySheet)
	if err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, learnerID, s, now); err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeProgress(f *excelize.File, records []mastery.Record, now time.Time) error {
	if err := setRow(f, ProgressSheet, 1, progressHeaders); err != nil {
		return err
	}

	sorted := make([]mastery.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TopicID != sorted[j].TopicID {
			return sorted[i].TopicID < sorted[j].TopicID
		}
		return sorted[i].QuestionID < sorted[j].QuestionID
	})

	for i, r := range sorted {
		next := ""
		if r.NextReviewAt != nil {
			next = r.NextReviewAt.UTC().Format(time.DateOnly)
		}
		row := []any{
			r.QuestionID, r.TopicID, r.Level.String(),
			r.Attempts, r.CorrectAttempts, r.IncorrectAttempts, r.CorrectStreak,
			r.Confidence, r.EasinessFactor, r.IntervalDays, next,
			string(spacedrep.Status(r, now)),
		}
		if err := setRow(f, ProgressSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, learnerID string, s stats.Summary, now time.Time) error {
	rows := [][]any{
		{"Learner", learnerID},
		{"Generated", now.UTC().Format(time.RFC3339)},
		{"Questions tracked", s.Tracked},
		{"Attempted", s.Attempted},
		{"Mastered", s.Mastered},
		{"Due for review", s.Due},
		{"Weak", s.Weak},
		{"Accuracy", s.Accuracy},
		{"Average confidence", s.AvgConfidence},
		{"Total time (s)", s.TotalTime.Seconds()},
		{"Median response (s)", s.ResponseMedian},
		{"P90 response (s)", s.ResponseP90},
		{},
		{"Topic", "Questions", "Attempted", "Mastered", "Completion %", "Mastery %", "Accuracy", "Confidence"},
	}
	for _, t := range s.Topics {
		rows = append(rows, []any{
			t.TopicID, t.Questions, t.Attempted, t.Mastered,
			t.CompletionPct, t.MasteryPct, t.Accuracy, t.AvgConfidence,
		})
	}
	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowIdx int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, rowIdx, err)
	}
	return nil
}

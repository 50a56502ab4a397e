package spacedrep

import (
	"testing"
	"time"

	"github.com/abhisek/lernapp/internal/mastery"
)

func at(t time.Time) *time.Time { return &t }

func TestIsDue_NeverScheduled(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := mastery.New("l", "q", "")
	if !IsDue(r, now) {
		t.Error("expected record without review date to be due")
	}
}

func TestIsDue_BeforeDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := mastery.Record{NextReviewAt: at(now.Add(24 * time.Hour))}
	if IsDue(r, now) {
		t.Error("expected not due before review date")
	}
}

func TestIsDue_OnDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := mastery.Record{NextReviewAt: at(now)}
	if !IsDue(r, now) {
		t.Error("expected due on review date")
	}
}

func TestOverdueDays(t *testing.T) {
	reviewDate := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := mastery.Record{NextReviewAt: at(reviewDate)}

	if got := OverdueDays(r, reviewDate.Add(-time.Hour)); got != 0 {
		t.Errorf("OverdueDays() before due = %f, want 0", got)
	}
	got := OverdueDays(r, reviewDate.Add(3*24*time.Hour))
	if got < 2.99 || got > 3.01 {
		t.Errorf("OverdueDays() = %f, want ~3.0", got)
	}
}

func TestDaysUntilReview(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	// 4.5 days in the future -> int(4.5) + 1 = 5
	r := mastery.Record{NextReviewAt: at(now.Add(108 * time.Hour))}
	if got := DaysUntilReview(r, now); got != 5 {
		t.Errorf("DaysUntilReview() = %d, want 5", got)
	}
	r.NextReviewAt = at(now.Add(-time.Hour))
	if got := DaysUntilReview(r, now); got != 0 {
		t.Errorf("DaysUntilReview() when due = %d, want 0", got)
	}
}

func TestStatus(t *testing.T) {
	reviewDate := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	attempted := mastery.Record{Attempts: 3, IntervalDays: 6, NextReviewAt: at(reviewDate)}

	tests := []struct {
		name string
		r    mastery.Record
		now  time.Time
		want ReviewStatus
	}{
		{"new", mastery.New("l", "q", ""), reviewDate, ReviewNew},
		{"not due", attempted, reviewDate.Add(-time.Hour), ReviewNotDue},
		{"due within grace", attempted, reviewDate.Add(2 * 24 * time.Hour), ReviewDue},
		{"overdue past grace", attempted, reviewDate.Add(4 * 24 * time.Hour), ReviewOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.r, tt.now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

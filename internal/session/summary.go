package session

import "github.com/abhisek/lernapp/internal/progression"

// Score weights for non-exam sessions.
const (
	accuracyWeight   = 0.7
	completionWeight = 0.3
)

// Grade thresholds on the exam percentage.
var gradeThresholds = []struct {
	min   float64
	grade string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

// Grade maps an exam percentage to a letter grade.
func Grade(percentage float64) string {
	for _, t := range gradeThresholds {
		if percentage >= t.min {
			return t.grade
		}
	}
	return "F"
}

// Score computes the result for a finalized session.
func Score(kind Kind, planned, answered, correct int) Result {
	var r Result
	if answered > 0 {
		r.Accuracy = float64(correct) / float64(answered)
	}
	if planned > 0 {
		r.Completion = float64(answered) / float64(planned)
		r.Percentage = float64(correct) * 100 / float64(planned)
	}

	exam := kind == KindExam
	if exam {
		r.Score = r.Percentage
		r.Grade = Grade(r.Percentage)
	} else {
		r.Score = (r.Accuracy*accuracyWeight + r.Completion*completionWeight) * 100
	}
	r.Points = progression.Points(correct, r.Percentage, exam)
	return r
}

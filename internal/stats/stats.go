// Package stats summarizes a learner's mastery records.
package stats

import (
	"sort"
	"time"

	mstats "github.com/montanaflynn/stats"

	"github.com/abhisek/lernapp/internal/mastery"
	"github.com/abhisek/lernapp/internal/spacedrep"
)

// Summary is the learner-level view over all mastery records.
type Summary struct {
	Tracked   int // records, attempted or not
	Attempted int
	Mastered  int
	Due       int
	Weak      int

	// Accuracy is correct over total attempts across all records.
	Accuracy float64

	// AvgConfidence is averaged over attempted records.
	AvgConfidence float64

	TotalTime time.Duration

	// Response time of the per-record averages, in seconds.
	ResponseMean   float64
	ResponseMedian float64
	ResponseP90    float64

	Levels map[mastery.Level]int
	Topics []TopicSummary
}

// TopicSummary is the learner's progress through one topic.
type TopicSummary struct {
	TopicID string

	// Questions is the size of the topic's question pool. It falls back to
	// the number of records when the pool size is unknown.
	Questions  int
	Attempted  int
	Proficient int
	Mastered   int

	Accuracy      float64
	AvgConfidence float64

	// Percentages of Questions that were attempted and mastered.
	CompletionPct float64
	MasteryPct    float64
}

// Compute builds the summary at now. topicSizes maps a topic to the number
// of questions in its pool; topics present only there are reported with no
// progress.
func Compute(records []mastery.Record, topicSizes map[string]int, now time.Time) Summary {
	s := Summary{
		Tracked: len(records),
		Levels:  make(map[mastery.Level]int, len(mastery.Levels)),
	}
	for _, l := range mastery.Levels {
		s.Levels[l] = 0
	}

	var (
		attempts, correct int
		confidences       []float64
		responses         []float64
		totalSeconds      float64
	)
	topics := make(map[string]*topicAcc)
	for id := range topicSizes {
		topics[id] = &topicAcc{}
	}

	for _, r := range records {
		s.Levels[r.Level]++

		t, ok := topics[r.TopicID]
		if !ok {
			t = &topicAcc{}
			topics[r.TopicID] = t
		}
		t.questions++

		if !r.Attempted() {
			continue
		}
		s.Attempted++
		attempts += r.Attempts
		correct += r.CorrectAttempts
		confidences = append(confidences, r.Confidence)
		responses = append(responses, r.AvgResponseSeconds)
		totalSeconds += r.TotalTimeSeconds

		t.attempted++
		t.attempts += r.Attempts
		t.correct += r.CorrectAttempts
		t.confidence += r.Confidence

		switch r.Level {
		case mastery.LevelMastered:
			s.Mastered++
			t.mastered++
		case mastery.LevelProficient:
			t.proficient++
		}
		if r.IsWeak() {
			s.Weak++
		}
		if spacedrep.IsDue(r, now) {
			s.Due++
		}
	}

	if attempts > 0 {
		s.Accuracy = float64(correct) / float64(attempts)
	}
	s.AvgConfidence = mean(confidences)
	s.TotalTime = time.Duration(totalSeconds * float64(time.Second))
	s.ResponseMean = mean(responses)
	s.ResponseMedian = median(responses)
	s.ResponseP90 = percentile(responses, 90)

	s.Topics = make([]TopicSummary, 0, len(topics))
	for id, t := range topics {
		ts := TopicSummary{
			TopicID:    id,
			Questions:  t.questions,
			Attempted:  t.attempted,
			Proficient: t.proficient,
			Mastered:   t.mastered,
		}
		if n, ok := topicSizes[id]; ok && n >= t.questions {
			ts.Questions = n
		}
		if ts.Questions > 0 {
			ts.CompletionPct = float64(ts.Attempted) * 100 / float64(ts.Questions)
			ts.MasteryPct = float64(ts.Mastered) * 100 / float64(ts.Questions)
		}
		if t.attempts > 0 {
			ts.Accuracy = float64(t.correct) / float64(t.attempts)
		}
		if t.attempted > 0 {
			ts.AvgConfidence = t.confidence / float64(t.attempted)
		}
		s.Topics = append(s.Topics, ts)
	}
	sort.Slice(s.Topics, func(i, j int) bool { return s.Topics[i].TopicID < s.Topics[j].TopicID })
	return s
}

// Topic returns the summary for one topic, or false if the topic is neither
// in the pool nor in the learner's records.
func (s Summary) Topic(topicID string) (TopicSummary, bool) {
	for _, t := range s.Topics {
		if t.TopicID == topicID {
			return t, true
		}
	}
	return TopicSummary{}, false
}

type topicAcc struct {
	questions, attempted int
	proficient, mastered int
	attempts, correct    int
	confidence           float64
}

// The helpers below return 0 for empty input instead of the library's
// EmptyInputErr.

func mean(data []float64) float64 {
	v, err := mstats.Mean(data)
	if err != nil {
		return 0
	}
	return v
}

func median(data []float64) float64 {
	v, err := mstats.Median(data)
	if err != nil {
		return 0
	}
	return v
}

func percentile(data []float64, p float64) float64 {
	v, err := mstats.Percentile(data, p)
	if err != nil {
		return 0
	}
	return v
}

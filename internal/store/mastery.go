package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lernapp/internal/mastery"
)

// MasteryRepo stores one mastery record per (learner, question).
type MasteryRepo struct {
	db *sql.DB
}

// Get returns the record, or nil if the learner never answered the question.
func (r *MasteryRepo) Get(ctx context.Context, learnerID, questionID string) (*mastery.Record, error) {
	query, args := builder().Select(columnNames(masteryColumns)...).
		From(entsql.Table(tableMastery)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("question_id", questionID),
		)).
		Query()

	rec, err := scanMastery(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mastery record: %w", err)
	}
	return &rec, nil
}

// Upsert inserts the record or replaces the stored one.
func (r *MasteryRepo) Upsert(ctx context.Context, rec mastery.Record) error {
	return upsertMastery(ctx, r.db, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertMastery(ctx context.Context, db execer, rec mastery.Record) error {
	query, args := builder().Insert(tableMastery).
		Columns(columnNames(masteryColumns)...).
		Values(
			rec.LearnerID, rec.QuestionID, rec.TopicID,
			rec.Attempts, rec.CorrectAttempts, rec.IncorrectAttempts, rec.CorrectStreak,
			rec.Confidence, rec.Level.String(),
			rec.EasinessFactor, rec.IntervalDays, rec.ReviewCount,
			nullTime(rec.LastAttemptAt), nullTime(rec.NextReviewAt),
			rec.AvgResponseSeconds, rec.TotalTimeSeconds,
		).
		OnConflict(
			entsql.ConflictColumns("learner_id", "question_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert mastery record: %w", err)
	}
	return nil
}

// ListByLearner returns the learner's records ordered by question id.
func (r *MasteryRepo) ListByLearner(ctx context.Context, learnerID string) ([]mastery.Record, error) {
	query, args := builder().Select(columnNames(masteryColumns)...).
		From(entsql.Table(tableMastery)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("question_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mastery records: %w", err)
	}
	defer rows.Close()

	var out []mastery.Record
	for rows.Next() {
		rec, err := scanMastery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mastery record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ResetTopic reinitializes the learner's records for a topic to their
// creation defaults and returns how many were reset.
func (r *MasteryRepo) ResetTopic(ctx context.Context, learnerID, topicID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Select(columnNames(masteryColumns)...).
		From(entsql.Table(tableMastery)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("topic_id", topicID),
		)).
		Query()
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query topic records: %w", err)
	}
	var records []mastery.Record
	for rows.Next() {
		rec, err := scanMastery(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan mastery record: %w", err)
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("query topic records: %w", err)
	}

	for _, rec := range records {
		if err := upsertMastery(ctx, tx, mastery.Reset(rec)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset: %w", err)
	}
	return len(records), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMastery(row rowScanner) (mastery.Record, error) {
	var (
		rec         mastery.Record
		level       string
		lastAttempt sql.NullTime
		nextReview  sql.NullTime
	)
	err := row.Scan(
		&rec.LearnerID, &rec.QuestionID, &rec.TopicID,
		&rec.Attempts, &rec.CorrectAttempts, &rec.IncorrectAttempts, &rec.CorrectStreak,
		&rec.Confidence, &level,
		&rec.EasinessFactor, &rec.IntervalDays, &rec.ReviewCount,
		&lastAttempt, &nextReview,
		&rec.AvgResponseSeconds, &rec.TotalTimeSeconds,
	)
	if err != nil {
		return mastery.Record{}, err
	}
	if rec.Level, err = mastery.ParseLevel(level); err != nil {
		return mastery.Record{}, err
	}
	rec.LastAttemptAt = timePtr(lastAttempt)
	rec.NextReviewAt = timePtr(nextReview)
	return rec, nil
}

// nullTime converts an optional time to a driver value in UTC.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

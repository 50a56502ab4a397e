package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/lernapp/internal/mastery"
)

const masteryColumns = `learner_id, question_id, topic_id, attempts, correct_attempts,
	incorrect_attempts, correct_streak, confidence, level, easiness_factor,
	interval_days, review_count, last_attempt_at, next_review_at,
	avg_response_seconds, total_time_seconds`

// MasteryRepository stores mastery records in PostgreSQL.
type MasteryRepository struct {
	db *pgxpool.Pool
	tx *Transactor
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Get returns the record, or nil if the learner never answered the question.
func (r *MasteryRepository) Get(ctx context.Context, learnerID, questionID string) (*mastery.Record, error) {
	query := `SELECT ` + masteryColumns + `
		FROM mastery_records
		WHERE learner_id = $1 AND question_id = $2`

	rec, err := scanMastery(r.db.QueryRow(ctx, query, learnerID, questionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mastery: %w", err)
	}
	return &rec, nil
}

// Upsert creates or replaces a record.
func (r *MasteryRepository) Upsert(ctx context.Context, rec mastery.Record) error {
	return upsertMastery(ctx, r.db, rec)
}

func upsertMastery(ctx context.Context, db execer, rec mastery.Record) error {
	query := `
		INSERT INTO mastery_records (` + masteryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (learner_id, question_id)
		DO UPDATE SET
			topic_id = excluded.topic_id,
			attempts = excluded.attempts,
			correct_attempts = excluded.correct_attempts,
			incorrect_attempts = excluded.incorrect_attempts,
			correct_streak = excluded.correct_streak,
			confidence = excluded.confidence,
			level = excluded.level,
			easiness_factor = excluded.easiness_factor,
			interval_days = excluded.interval_days,
			review_count = excluded.review_count,
			last_attempt_at = excluded.last_attempt_at,
			next_review_at = excluded.next_review_at,
			avg_response_seconds = excluded.avg_response_seconds,
			total_time_seconds = excluded.total_time_seconds
	`
	_, err := db.Exec(ctx, query,
		rec.LearnerID, rec.QuestionID, rec.TopicID,
		rec.Attempts, rec.CorrectAttempts, rec.IncorrectAttempts, rec.CorrectStreak,
		rec.Confidence, rec.Level.String(), rec.EasinessFactor,
		rec.IntervalDays, rec.ReviewCount, rec.LastAttemptAt, rec.NextReviewAt,
		rec.AvgResponseSeconds, rec.TotalTimeSeconds,
	)
	if err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}
	return nil
}

// ListByLearner returns the learner's records ordered by question id.
func (r *MasteryRepository) ListByLearner(ctx context.Context, learnerID string) ([]mastery.Record, error) {
	query := `SELECT ` + masteryColumns + `
		FROM mastery_records
		WHERE learner_id = $1
		ORDER BY question_id`

	rows, err := r.db.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	defer rows.Close()

	var out []mastery.Record
	for rows.Next() {
		rec, err := scanMastery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ResetTopic reinitializes the learner's records for a topic to their
// creation defaults in one transaction.
func (r *MasteryRepository) ResetTopic(ctx context.Context, learnerID, topicID string) (int, error) {
	var n int
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+masteryColumns+`
			FROM mastery_records
			WHERE learner_id = $1 AND topic_id = $2
			FOR UPDATE`,
			learnerID, topicID,
		)
		if err != nil {
			return fmt.Errorf("select topic records: %w", err)
		}
		records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (mastery.Record, error) {
			return scanMastery(row)
		})
		if err != nil {
			return fmt.Errorf("scan topic records: %w", err)
		}
		for _, rec := range records {
			if err := upsertMastery(ctx, tx, mastery.Reset(rec)); err != nil {
				return err
			}
		}
		n = len(records)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset topic: %w", err)
	}
	return n, nil
}

func scanMastery(row pgx.Row) (mastery.Record, error) {
	var (
		rec   mastery.Record
		level string
	)
	err := row.Scan(
		&rec.LearnerID, &rec.QuestionID, &rec.TopicID,
		&rec.Attempts, &rec.CorrectAttempts, &rec.IncorrectAttempts, &rec.CorrectStreak,
		&rec.Confidence, &level, &rec.EasinessFactor,
		&rec.IntervalDays, &rec.ReviewCount, &rec.LastAttemptAt, &rec.NextReviewAt,
		&rec.AvgResponseSeconds, &rec.TotalTimeSeconds,
	)
	if err != nil {
		return mastery.Record{}, err
	}
	rec.Level, err = mastery.ParseLevel(level)
	return rec, err
}

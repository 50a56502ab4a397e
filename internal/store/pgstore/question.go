package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/lernapp/internal/questionpool"
)

// QuestionRepository is the question catalog in PostgreSQL.
type QuestionRepository struct {
	db *pgxpool.Pool
	tx *Transactor
}

// Put inserts or replaces questions in one transaction.
func (r *QuestionRepository) Put(ctx context.Context, qs ...questionpool.Question) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, q := range qs {
			batch.Queue(`
				INSERT INTO questions (id, topic_id, difficulty)
				VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET
					topic_id = excluded.topic_id,
					difficulty = excluded.difficulty
			`, q.ID, q.TopicID, int16(q.Difficulty))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save questions: %w", err)
		}
		return nil
	})
}

// Query returns matching questions ordered by id.
func (r *QuestionRepository) Query(ctx context.Context, f questionpool.Filter) ([]questionpool.Question, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, topic_id, difficulty
		FROM questions
		WHERE ($1 = '' OR topic_id = $1) AND ($2 = 0 OR difficulty = $2)
		ORDER BY id
	`, f.TopicID, int16(f.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []questionpool.Question
	for rows.Next() {
		var (
			q questionpool.Question
			d int16
		)
		if err := rows.Scan(&q.ID, &q.TopicID, &d); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Difficulty = questionpool.Difficulty(d)
		out = append(out, q)
	}
	return out, rows.Err()
}

// Lookup returns one question by id.
func (r *QuestionRepository) Lookup(ctx context.Context, id string) (questionpool.Question, bool, error) {
	var (
		q questionpool.Question
		d int16
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, topic_id, difficulty FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.TopicID, &d)
	if errors.Is(err, pgx.ErrNoRows) {
		return questionpool.Question{}, false, nil
	}
	if err != nil {
		return questionpool.Question{}, false, fmt.Errorf("lookup question: %w", err)
	}
	q.Difficulty = questionpool.Difficulty(d)
	return q, true, nil
}

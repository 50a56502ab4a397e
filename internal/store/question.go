package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lernapp/internal/questionpool"
)

// QuestionRepo is the persisted question catalog. It implements
// questionpool.Pool and questionpool.Lookup.
type QuestionRepo struct {
	db *sql.DB
}

// Put inserts or replaces questions in one transaction.
func (r *QuestionRepo) Put(ctx context.Context, qs ...questionpool.Question) error {
	if len(qs) == 0 {
		return nil
	}
	ins := builder().Insert(tableQuestions).Columns(columnNames(questionColumns)...)
	for _, q := range qs {
		if q.ID == "" || !q.Difficulty.Valid() {
			return fmt.Errorf("invalid question %+v", q)
		}
		ins = ins.Values(q.ID, q.TopicID, int(q.Difficulty))
	}
	query, args := ins.OnConflict(
		entsql.ConflictColumns("id"),
		entsql.ResolveWithNewValues(),
	).Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	return nil
}

// Query returns matching questions ordered by id.
func (r *QuestionRepo) Query(ctx context.Context, f questionpool.Filter) ([]questionpool.Question, error) {
	var preds []*entsql.Predicate
	if f.TopicID != "" {
		preds = append(preds, entsql.EQ("topic_id", f.TopicID))
	}
	if f.Difficulty != 0 {
		preds = append(preds, entsql.EQ("difficulty", int(f.Difficulty)))
	}
	sel := builder().Select(columnNames(questionColumns)...).
		From(entsql.Table(tableQuestions)).
		OrderBy("id")
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []questionpool.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Lookup returns a single question by id.
func (r *QuestionRepo) Lookup(ctx context.Context, id string) (questionpool.Question, bool, error) {
	query, args := builder().Select(columnNames(questionColumns)...).
		From(entsql.Table(tableQuestions)).
		Where(entsql.EQ("id", id)).
		Query()

	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return questionpool.Question{}, false, nil
	}
	if err != nil {
		return questionpool.Question{}, false, fmt.Errorf("query question: %w", err)
	}
	return q, true, nil
}

func scanQuestion(row rowScanner) (questionpool.Question, error) {
	var (
		q          questionpool.Question
		difficulty int
	)
	if err := row.Scan(&q.ID, &q.TopicID, &difficulty); err != nil {
		return questionpool.Question{}, err
	}
	q.Difficulty = questionpool.Difficulty(difficulty)
	return q, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lernapp/internal/progression"
)

// ProfileRepo keeps learner point totals and levels.
type ProfileRepo struct {
	db *sql.DB
}

// AddPoints adds points to the learner, recomputes the level and returns
// the new total. Unknown learners start from zero.
func (r *ProfileRepo) AddPoints(ctx context.Context, learnerID string, points int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	total, err := r.total(ctx, tx, learnerID)
	if err != nil {
		return 0, err
	}
	total += points

	query, args := builder().Insert(tableProfiles).
		Columns("learner_id", "total_points", "level", "updated_at").
		Values(learnerID, total, progression.Level(total), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("learner_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("save profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit profile: %w", err)
	}
	return total, nil
}

// CurrentLevel returns the learner's level; learners without points are
// level 1.
func (r *ProfileRepo) CurrentLevel(ctx context.Context, learnerID string) (int, error) {
	total, err := r.TotalPoints(ctx, learnerID)
	if err != nil {
		return 0, err
	}
	return progression.Level(total), nil
}

// TotalPoints returns the learner's accumulated points.
func (r *ProfileRepo) TotalPoints(ctx context.Context, learnerID string) (int, error) {
	return r.total(ctx, r.db, learnerID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ProfileRepo) total(ctx context.Context, q queryer, learnerID string) (int, error) {
	query, args := builder().Select("total_points").
		From(entsql.Table(tableProfiles)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()

	var total int
	err := q.QueryRowContext(ctx, query, args...).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query profile: %w", err)
	}
	return total, nil
}

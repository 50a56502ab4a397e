package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/lernapp/internal/progression"
)

// ProfileRepository keeps learner point totals in PostgreSQL.
type ProfileRepository struct {
	db *pgxpool.Pool
	tx *Transactor
}

// AddPoints adds points and stores the recomputed level in one transaction.
func (r *ProfileRepository) AddPoints(ctx context.Context, learnerID string, points int) (int, error) {
	var total int
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO profiles (learner_id, total_points, level, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (learner_id)
			DO UPDATE SET
				total_points = profiles.total_points + excluded.total_points,
				updated_at = NOW()
			RETURNING total_points
		`, learnerID, points).Scan(&total)
		if err != nil {
			return fmt.Errorf("add points: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE profiles SET level = $2 WHERE learner_id = $1`,
			learnerID, progression.Level(total),
		)
		if err != nil {
			return fmt.Errorf("update level: %w", err)
		}
		return nil
	})
	return total, err
}

// CurrentLevel returns the learner's level; unknown learners are level 1.
func (r *ProfileRepository) CurrentLevel(ctx context.Context, learnerID string) (int, error) {
	total, err := r.TotalPoints(ctx, learnerID)
	if err != nil {
		return 0, err
	}
	return progression.Level(total), nil
}

// TotalPoints returns the learner's accumulated points.
func (r *ProfileRepository) TotalPoints(ctx context.Context, learnerID string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT total_points FROM profiles WHERE learner_id = $1`, learnerID,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}
	return total, nil
}

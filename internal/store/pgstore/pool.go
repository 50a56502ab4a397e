// Package pgstore is the PostgreSQL backend of the learning engine. It
// implements the same collaborators as the SQLite store with pgx.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// NewPool connects to dsn.
func NewPool(ctx context.Context, dsn string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Transactor runs functions inside a transaction.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor creates a Transactor.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// WithinTx commits when fn succeeds and rolls back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Store bundles the repositories over one pool.
type Store struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

// Open connects, migrates and returns a Store.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	pool, err := NewPool(ctx, dsn, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, tx: NewTransactor(pool)}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool returns the underlying pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Mastery returns the mastery record repository.
func (s *Store) Mastery() *MasteryRepository {
	return &MasteryRepository{db: s.pool, tx: s.tx}
}

// Sessions returns the session repository.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.pool}
}

// Profiles returns the learner profile repository.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.pool, tx: s.tx}
}

// Questions returns the question catalog.
func (s *Store) Questions() *QuestionRepository {
	return &QuestionRepository{db: s.pool, tx: s.tx}
}

// Answers returns the answer log.
func (s *Store) Answers() *AnswerLogRepository {
	return &AnswerLogRepository{db: s.pool}
}

// Package app wires configuration, storage and services together.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lernapp/internal/config"
	"github.com/abhisek/lernapp/internal/progression"
	"github.com/abhisek/lernapp/internal/questionpool"
	"github.com/abhisek/lernapp/internal/session"
	"github.com/abhisek/lernapp/internal/store"
	"github.com/abhisek/lernapp/internal/store/pgstore"
	"github.com/abhisek/lernapp/internal/sweeper"
)

// QuestionCatalog is a writable question pool.
type QuestionCatalog interface {
	questionpool.Pool
	questionpool.Lookup
	Put(ctx context.Context, qs ...questionpool.Question) error
}

// SessionRepo adds the read views the CLI needs to session.SessionStore.
type SessionRepo interface {
	session.SessionStore
	Active(ctx context.Context, learnerID string) (*session.Session, error)
	ListByLearner(ctx context.Context, learnerID string, limit int) ([]*session.Session, error)
}

// ProfileRepo adds the raw point total to progression.Profile.
type ProfileRepo interface {
	progression.Profile
	TotalPoints(ctx context.Context, learnerID string) (int, error)
}

// AnswerHistory adds a read view of the answer log to session.EventLog.
type AnswerHistory interface {
	session.EventLog
	History(ctx context.Context, learnerID, sessionID string, limit int) ([]session.AnswerEvent, error)
}

// Backend is one storage implementation of every collaborator.
type Backend struct {
	Questions QuestionCatalog
	Mastery   session.MasteryStore
	Sessions  SessionRepo
	Profiles  ProfileRepo
	Events    AnswerHistory
	Close     func() error
}

// App holds the wired services.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Backend *Backend
	Service *session.Service
	Sweeper *sweeper.Sweeper
}

// Options override parts of the configuration for one run.
type Options struct {
	// DSN replaces database.dsn, e.g. from the --db flag.
	DSN string
}

// New opens the configured backend and builds the services on it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if opts.DSN != "" {
		cfg.DB.DSN = opts.DSN
	}
	backend, err := OpenBackend(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	seed := cfg.Planner.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	svc := session.NewService(session.Deps{
		Pool:     backend.Questions,
		Mastery:  backend.Mastery,
		Sessions: backend.Sessions,
		Profile:  backend.Profiles,
		Events:   backend.Events,
		Logger:   logger,
		Rand:     rand.New(rand.NewSource(seed)),
	}, cfg.ServiceConfig())

	sw, err := sweeper.New(svc, cfg.Sweeper.Schedule, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		Service: svc,
		Sweeper: sw,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}

// OpenBackend opens the storage named by cfg.Driver.
func OpenBackend(ctx context.Context, cfg config.DB) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve DB path: %w", err)
			}
			dsn = p
		} else if err := store.EnsureDir(dsn); err != nil {
			return nil, fmt.Errorf("create DB dir: %w", err)
		}
		st, err := store.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return &Backend{
			Questions: st.Questions(),
			Mastery:   st.Mastery(),
			Sessions:  st.Sessions(),
			Profiles:  st.Profiles(),
			Events:    st.Answers(),
			Close:     st.Close,
		}, nil

	case config.DriverPostgres:
		st, err := pgstore.Open(ctx, cfg.DSN, pgstore.PoolConfig{
			MaxConns:        int32(cfg.MaxConnections),
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &Backend{
			Questions: st.Questions(),
			Mastery:   st.Mastery(),
			Sessions:  st.Sessions(),
			Profiles:  st.Profiles(),
			Events:    st.Answers(),
			Close:     st.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// Package config loads lernapp configuration from an optional YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/lernapp/internal/session"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrMissingDSN = errors.New("database dsn is required for postgres")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env     string  `mapstructure:"env"`      // local, production, ...
	DB      DB      `mapstructure:"database"` // storage backend
	Session Session `mapstructure:"session"`  // session lifecycle limits
	Sweeper Sweeper `mapstructure:"sweeper"`  // idle sweep schedule
	Planner Planner `mapstructure:"planner"`  // question selection
}

// DB contains database-related configuration parameters.
type DB struct {
	Driver          string        `mapstructure:"driver"`            // sqlite or postgres
	DSN             string        `mapstructure:"dsn"`               // file path for sqlite, URL for postgres
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Session holds session timing limits.
type Session struct {
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ExamTimeLimit      time.Duration `mapstructure:"exam_time_limit"`
	QuickTestTimeLimit time.Duration `mapstructure:"quick_test_time_limit"`
}

// Sweeper configures the scheduled idle sweep.
type Sweeper struct {
	Schedule    string `mapstructure:"schedule"` // cron spec
	Concurrency int    `mapstructure:"concurrency"`
}

// Planner configures question selection.
type Planner struct {
	Seed int64 `mapstructure:"seed"` // 0 seeds from the clock
}

// Load reads configuration. path names an explicit config file; when empty,
// ./config/config.yaml is used if present.
func Load(path string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	v.SetDefault("env", "local")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("session.idle_timeout", "24h")
	v.SetDefault("session.exam_time_limit", "90m")
	v.SetDefault("session.quick_test_time_limit", "15m")
	v.SetDefault("sweeper.schedule", "*/15 * * * *")
	v.SetDefault("sweeper.concurrency", 4)
	v.SetDefault("planner.seed", 0)

	v.SetEnvPrefix("LERNAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV", "LERNAPP_ENV")
	_ = v.BindEnv("database.driver", "LERNAPP_DB_DRIVER")
	_ = v.BindEnv("database.dsn", "LERNAPP_DB_DSN", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DB.Driver)
	}
	if c.Session.IdleTimeout < 0 || c.Session.ExamTimeLimit < 0 || c.Session.QuickTestTimeLimit < 0 {
		return fmt.Errorf("session durations must not be negative")
	}
	return nil
}

// ServiceConfig maps the session section onto session.Config.
func (c *Config) ServiceConfig() session.Config {
	return session.Config{
		IdleTimeout: c.Session.IdleTimeout,
		TimeLimits: map[session.Kind]time.Duration{
			session.KindExam:  c.Session.ExamTimeLimit,
			session.KindQuick: c.Session.QuickTestTimeLimit,
		},
		SweepConcurrency: c.Sweeper.Concurrency,
	}
}

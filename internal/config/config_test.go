package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lernapp/internal/session"
)

// chdirTemp runs the test from an empty directory so no stray config or
// .env file is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, 90*time.Minute, cfg.Session.ExamTimeLimit)
	assert.Equal(t, "*/15 * * * *", cfg.Sweeper.Schedule)
	assert.Equal(t, 4, cfg.Sweeper.Concurrency)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "lernapp.yaml")
	yaml := `
env: production
database:
  driver: postgres
  dsn: postgres://file/db
session:
  idle_timeout: 2h
  quick_test_time_limit: 5m
planner:
  seed: 99
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "postgres://env/db", cfg.DB.DSN, "environment wins over the file")
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, int64(99), cfg.Planner.Seed)

	sc := cfg.ServiceConfig()
	assert.Equal(t, 5*time.Minute, sc.TimeLimits[session.KindQuick])
	assert.Equal(t, 90*time.Minute, sc.TimeLimits[session.KindExam])
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LERNAPP_DB_DSN=/tmp/from-dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LERNAPP_DB_DSN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DB.DSN)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite without dsn", Config{DB: DB{Driver: DriverSQLite}}, false},
		{"postgres without dsn", Config{DB: DB{Driver: DriverPostgres}}, true},
		{"unknown driver", Config{DB: DB{Driver: "mysql"}}, true},
		{"negative timeout", Config{DB: DB{Driver: DriverSQLite}, Session: Session{IdleTimeout: -time.Second}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

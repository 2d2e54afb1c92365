package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("MATCH_RECIPROCITY", "")
	t.Setenv("REALTIME_POLL_INTERVAL", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/unimeet")
	assert.Equal(t, "any", cfg.Matching.Reciprocity)
	assert.Equal(t, 50, cfg.Matching.CandidateLimit)
	assert.Equal(t, 3*time.Second, cfg.Realtime.PollInterval)
	assert.Equal(t, "50051", cfg.GRPC.Port)
}

func TestNew_PostgresDSNFromParts(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=db.internal port=5432")
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  env: staging
matching:
  reciprocity: same
  candidate_limit: 10
realtime:
  poll_interval: 7s
grpc:
  port: "6000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_ENV", "")
	t.Setenv("MATCH_RECIPROCITY", "")
	t.Setenv("CANDIDATE_LIMIT", "")
	t.Setenv("REALTIME_POLL_INTERVAL", "")
	t.Setenv("GRPC_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.ENV)
	assert.Equal(t, "same", cfg.Matching.Reciprocity)
	assert.Equal(t, 10, cfg.Matching.CandidateLimit)
	assert.Equal(t, 7*time.Second, cfg.Realtime.PollInterval)
	assert.Equal(t, "7000", cfg.GRPC.Port) // env wins
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Redis.Addr)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

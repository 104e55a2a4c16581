package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "graph", cfg.Positions.Backend)
	assert.Equal(t, 2*time.Second, cfg.Positions.Debounce)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, 4, cfg.Ingest.Workers)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
http:
  port: 9090
  readTimeout: 3s
  allowedOrigins: "http://a.example, http://b.example"
graph:
  uri: bolt://neo4j:7687
positions:
  backend: redis
  redisURL: redis://cache:6379/1
  debounce: 500ms
telemetry:
  traceExporter: stdout
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("POSITIONS_DEBOUNCE", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTP.Port, "env overrides file")
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "bolt://neo4j:7687", cfg.Graph.URI)
	assert.Equal(t, "redis", cfg.Positions.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Positions.RedisURL)
	assert.Equal(t, time.Second, cfg.Positions.Debounce)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.HTTP.AllowedOrigins())
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout, "unset keys keep defaults")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad port", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("SERVER_PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("SERVER_READ_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad backend", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("POSITIONS_BACKEND", "etcd")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadTranslations(t *testing.T) {
	path := writeFile(t, "en.yaml", "relationship_uses: uses\nrelationship_related-to: related to\n")
	tr, err := LoadTranslations(path)
	require.NoError(t, err)
	assert.Equal(t, "related to", tr["relationship_related-to"])

	_, err = LoadTranslations(writeFile(t, "bad.yaml", "- a\n- b\n"))
	assert.Error(t, err)
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 64, cfg.Engine.StreamWindow)
	assert.True(t, cfg.Engine.RevealSeed)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: 127.0.0.1:9000
  read_timeout: 3s
store:
  path: /var/lib/turnstile/matches.db
engine:
  max_depth: 8
  stream_window: 16
  reveal_seed: false
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/turnstile/matches.db", cfg.Store.Path)
	assert.Equal(t, 8, cfg.Engine.MaxDepth)
	assert.Equal(t, 1000, cfg.Engine.MaxSteps)
	assert.Equal(t, 16, cfg.Engine.StreamWindow)
	assert.False(t, cfg.Engine.RevealSeed)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "server:\n  addr: :9000\n")
	t.Setenv("TURNSTILE_SERVER_ADDR", ":7000")
	t.Setenv("TURNSTILE_ENGINE_SNAPSHOT_EVERY", "5")
	t.Setenv("TURNSTILE_STORE_PATH", "/tmp/m.db")
	t.Setenv("TURNSTILE_SERVER_WRITE_TIMEOUT", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, int64(5), cfg.Engine.SnapshotEvery)
	assert.Equal(t, "/tmp/m.db", cfg.Store.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.WriteTimeout)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{
			name:    "unknown key",
			content: "server:\n  port: 80\n",
			want:    "field port not found",
		},
		{
			name:    "bad max depth",
			content: "engine:\n  max_depth: 0\n",
			want:    "engine.max_depth must be positive",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: loud\n",
			want:    `unknown level "loud"`,
		},
		{
			name: "bad env value",
			env:  map[string]string{"TURNSTILE_ENGINE_MAX_STEPS": "many"},
			want: "parse env",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Engine.StreamWindow = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr is required")
	assert.Contains(t, err.Error(), "engine.stream_window must be positive")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("")
	assert.Error(t, err)
}

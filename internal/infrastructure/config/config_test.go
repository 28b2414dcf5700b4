package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// API config
	assert.Equal(t, "http://localhost:8080/backend-api/api", cfg.API.URL)
	assert.Empty(t, cfg.API.Token)

	// Tracing config
	assert.Equal(t, "llm", cfg.Tracing.Kind)
	assert.Equal(t, 20, cfg.Tracing.PageSize)
	assert.Equal(t, 5, cfg.Tracing.MaxReconnectAttempts)
	assert.Equal(t, 3*time.Second, cfg.Tracing.ReconnectInterval)
	assert.Equal(t, "/tracing/ws", cfg.Tracing.SocketPath)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Server config
	assert.Equal(t, "127.0.0.1:8090", cfg.Server.Addr())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"API_URL":                    "https://console.example.com/api",
		"API_TOKEN":                  "tok",
		"HTTP_TIMEOUT":               "5s",
		"HTTP_BREAKER_THRESHOLD":     "9",
		"TRACING_KIND":               "mcp",
		"TRACING_PAGE_SIZE":          "50",
		"TRACING_MAX_RECONNECTS":     "8",
		"TRACING_RECONNECT_INTERVAL": "1500ms",
		"SOCKET_COMPRESSION":         "false",
		"SOCKET_READ_LIMIT":          "1024",
		"LOG_LEVEL":                  "debug",
		"LOG_DEV":                    "true",
		"RATE_LIMIT_RPS":             "5",
		"PORT":                       "9000",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://console.example.com/api", cfg.API.URL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, uint32(9), cfg.HTTP.BreakerThreshold)
	assert.Equal(t, "mcp", cfg.Tracing.Kind)
	assert.Equal(t, 50, cfg.Tracing.PageSize)
	assert.Equal(t, 8, cfg.Tracing.MaxReconnectAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.Tracing.ReconnectInterval)
	assert.False(t, cfg.Socket.Compression)
	assert.Equal(t, int64(1024), cfg.Socket.ReadLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "9000", cfg.Server.Port)

	// Defaults still apply
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("TRACING_PAGE_SIZE", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		dev       string
		wantLevel string
		wantDev   bool
	}{
		{name: "default values", wantLevel: "info"},
		{name: "debug level", level: "debug", wantLevel: "debug"},
		{name: "development mode", dev: "true", wantLevel: "info", wantDev: true},
		{name: "error level production", level: "error", dev: "false", wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.level != "" {
				t.Setenv("LOG_LEVEL", tt.level)
			}
			if tt.dev != "" {
				t.Setenv("LOG_DEV", tt.dev)
			}

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
			assert.Equal(t, tt.wantDev, cfg.Logging.Development)
		})
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracewatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
[api]
url = "https://console.internal/api"

[tracing]
page_size = 50
reconnect_interval = "1500ms"

[logging]
development = true

[server]
port = "9100"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://console.internal/api", cfg.API.URL)
	assert.Equal(t, 50, cfg.Tracing.PageSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Tracing.ReconnectInterval)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr())
	assert.Equal(t, 5, cfg.Tracing.MaxReconnectAttempts)
}

func TestLoadFileEnvironmentWins(t *testing.T) {
	t.Setenv("TRACING_PAGE_SIZE", "10")
	path := writeFile(t, "[tracing]\npage_size = 50\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Tracing.PageSize)
}

func TestLoadFileMissingIsDefault(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(writeFile(t, "[tracing\n"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "[tracing]\nreconnect_interval = \"soon\"\n"))
	assert.ErrorContains(t, err, "invalid duration")
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all console configuration.
type Config struct {
	API       APIConfig
	HTTP      HTTPConfig
	Tracing   TracingConfig
	Socket    SocketConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Server    ServerConfig
}

// APIConfig locates the console backend and the caller's credential.
type APIConfig struct {
	URL             string `envconfig:"API_URL" default:"http://localhost:8080/backend-api/api"`
	Token           string `envconfig:"API_TOKEN"`
	CredentialsFile string `envconfig:"CREDENTIALS_FILE"`
}

// HTTPConfig tunes the REST client.
type HTTPConfig struct {
	Timeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	MaxRetries       int           `envconfig:"HTTP_MAX_RETRIES" default:"3"`
	RetryWaitMin     time.Duration `envconfig:"HTTP_RETRY_WAIT_MIN" default:"500ms"`
	RetryWaitMax     time.Duration `envconfig:"HTTP_RETRY_WAIT_MAX" default:"5s"`
	UserAgent        string        `envconfig:"HTTP_USER_AGENT" default:"AgentOS-Console/1.0"`
	BreakerThreshold uint32        `envconfig:"HTTP_BREAKER_THRESHOLD" default:"5"`
	BreakerTimeout   time.Duration `envconfig:"HTTP_BREAKER_TIMEOUT" default:"15s"`
}

// TracingConfig holds engine defaults.
type TracingConfig struct {
	Kind                 string        `envconfig:"TRACING_KIND" default:"llm"`
	PageSize             int           `envconfig:"TRACING_PAGE_SIZE" default:"20"`
	MaxReconnectAttempts int           `envconfig:"TRACING_MAX_RECONNECTS" default:"5"`
	ReconnectInterval    time.Duration `envconfig:"TRACING_RECONNECT_INTERVAL" default:"3s"`
	SocketPath           string        `envconfig:"TRACING_SOCKET_PATH" default:"/tracing/ws"`
}

// SocketConfig tunes the push channel dialer.
type SocketConfig struct {
	HandshakeTimeout time.Duration `envconfig:"SOCKET_HANDSHAKE_TIMEOUT" default:"10s"`
	WriteTimeout     time.Duration `envconfig:"SOCKET_WRITE_TIMEOUT" default:"10s"`
	ReadLimit        int64         `envconfig:"SOCKET_READ_LIMIT" default:"4194304"`
	Compression      bool          `envconfig:"SOCKET_COMPRESSION" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig caps outgoing REST calls.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ServerConfig holds the local dashboard server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	// Origins are extra dashboard origins allowed besides loopback.
	Origins []string `envconfig:"DASHBOARD_ORIGINS"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL: "http://localhost:8080/backend-api/api",
		},
		HTTP: HTTPConfig{
			Timeout:          30 * time.Second,
			MaxRetries:       3,
			RetryWaitMin:     500 * time.Millisecond,
			RetryWaitMax:     5 * time.Second,
			UserAgent:        "AgentOS-Console/1.0",
			BreakerThreshold: 5,
			BreakerTimeout:   15 * time.Second,
		},
		Tracing: TracingConfig{
			Kind:                 "llm",
			PageSize:             20,
			MaxReconnectAttempts: 5,
			ReconnectInterval:    3 * time.Second,
			SocketPath:           "/tracing/ws",
		},
		Socket: SocketConfig{
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     10 * time.Second,
			ReadLimit:        4 << 20,
			Compression:      true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		Server: ServerConfig{
			Port: "8090",
			Host: "127.0.0.1",
		},
	}
}

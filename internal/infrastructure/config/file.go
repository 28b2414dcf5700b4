package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// File is the subset of Config that can be set from a TOML file. Durations
// are Go duration strings such as "1500ms".
type File struct {
	API struct {
		URL             string `toml:"url"`
		Token           string `toml:"token"`
		CredentialsFile string `toml:"credentials_file"`
	} `toml:"api"`
	HTTP struct {
		Timeout    string `toml:"timeout"`
		MaxRetries *int   `toml:"max_retries"`
	} `toml:"http"`
	Tracing struct {
		Kind                 string `toml:"kind"`
		PageSize             int    `toml:"page_size"`
		MaxReconnectAttempts int    `toml:"max_reconnect_attempts"`
		ReconnectInterval    string `toml:"reconnect_interval"`
		SocketPath           string `toml:"socket_path"`
	} `toml:"tracing"`
	Logging struct {
		Level       string `toml:"level"`
		Development *bool  `toml:"development"`
	} `toml:"logging"`
	Server struct {
		Host string `toml:"host"`
		Port string `toml:"port"`
	} `toml:"server"`
}

// LoadFile loads configuration from the environment and overlays the TOML
// file at path. Environment variables that are set win over the file. A
// missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := f.apply(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (f *File) apply(cfg *Config) error {
	setString(&cfg.API.URL, f.API.URL, "API_URL")
	setString(&cfg.API.Token, f.API.Token, "API_TOKEN")
	setString(&cfg.API.CredentialsFile, f.API.CredentialsFile, "CREDENTIALS_FILE")
	if err := setDuration(&cfg.HTTP.Timeout, f.HTTP.Timeout, "HTTP_TIMEOUT"); err != nil {
		return err
	}
	if f.HTTP.MaxRetries != nil && !envSet("HTTP_MAX_RETRIES") {
		cfg.HTTP.MaxRetries = *f.HTTP.MaxRetries
	}

	setString(&cfg.Tracing.Kind, f.Tracing.Kind, "TRACING_KIND")
	setInt(&cfg.Tracing.PageSize, f.Tracing.PageSize, "TRACING_PAGE_SIZE")
	setInt(&cfg.Tracing.MaxReconnectAttempts, f.Tracing.MaxReconnectAttempts, "TRACING_MAX_RECONNECTS")
	if err := setDuration(&cfg.Tracing.ReconnectInterval, f.Tracing.ReconnectInterval, "TRACING_RECONNECT_INTERVAL"); err != nil {
		return err
	}
	setString(&cfg.Tracing.SocketPath, f.Tracing.SocketPath, "TRACING_SOCKET_PATH")

	setString(&cfg.Logging.Level, f.Logging.Level, "LOG_LEVEL")
	if f.Logging.Development != nil && !envSet("LOG_DEV") {
		cfg.Logging.Development = *f.Logging.Development
	}

	setString(&cfg.Server.Host, f.Server.Host, "HOST")
	setString(&cfg.Server.Port, f.Server.Port, "PORT")
	return nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setString(dst *string, v, env string) {
	if v != "" && !envSet(env) {
		*dst = v
	}
}

func setInt(dst *int, v int, env string) {
	if v != 0 && !envSet(env) {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, env string) error {
	if v == "" || envSet(env) {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", v, err)
	}
	*dst = d
	return nil
}

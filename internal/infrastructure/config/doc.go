// Package config provides 12-factor configuration for the trace console.
//
// Configuration is loaded from environment variables with sensible defaults.
// LoadFile overlays an optional TOML file underneath the environment, so a
// variable that is set always beats the file. CLI flags override both.
//
// Configuration Sections:
//   - API: backend base URL and credential sources
//   - HTTP: REST client timeouts, retries and circuit breaker
//   - Tracing: engine page size and reconnect policy
//   - Socket: push channel dialer limits
//   - Logging: log level and output format
//   - RateLimit: outgoing request rate
//   - Server: local dashboard listener
//
// Example Usage:
//
//	cfg, err := config.LoadFile("/home/me/.config/agentos/tracewatch.toml")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Watching %s traces at %s\n", cfg.Tracing.Kind, cfg.API.URL)
//
// File:
//
//	[api]
//	url = "https://console.example.com/backend-api/api"
//
//	[tracing]
//	page_size = 50
//	reconnect_interval = "5s"
//
// Environment Variables:
//   - API_URL, API_TOKEN, CREDENTIALS_FILE
//   - HTTP_TIMEOUT, HTTP_MAX_RETRIES, HTTP_BREAKER_THRESHOLD
//   - TRACING_KIND, TRACING_PAGE_SIZE, TRACING_MAX_RECONNECTS
//   - SOCKET_HANDSHAKE_TIMEOUT, SOCKET_READ_LIMIT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - PORT, HOST, DASHBOARD_ORIGINS (comma separated)
package config

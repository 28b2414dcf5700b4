// Command tracewatch reads the AgentOS console trace feed.
//
// It pages and filters LLM traces over the console REST API, follows the
// live push channel, and serves the live state to local dashboards.
//
// Commands:
//   - login, logout: manage the stored access token
//   - list, detail, stats: one-shot queries
//   - watch: follow new and updated traces until interrupted
//   - serve: HTTP and websocket surface plus /metrics
//   - settings: show or change LLM content tracing
//
// Configuration, later sources win:
//   - ~/.config/agentos/tracewatch.toml, or --config
//   - Environment variables (API_URL, API_TOKEN, LOG_LEVEL, ...)
//   - CLI flags
//   - ~/.config/agentos/credentials.yaml for the token
//
// Usage:
//
//	tracewatch login
//	tracewatch list --model gpt-4o --status failed
//	tracewatch watch
//	tracewatch serve --addr 127.0.0.1:8090
//
// Signals:
//   - SIGINT, SIGTERM: watch and serve shut down gracefully
package main

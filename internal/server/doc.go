// Package server exposes a live trace engine to local dashboards.
//
// Routes:
//   - GET  /health, /metrics, /stream (websocket)
//   - GET  /api/snapshot, /api/rows, /api/statistics, /api/filters
//   - POST /api/filter, /api/filter/reset, /api/page, /api/refresh
//   - GET  /api/traces/:id, DELETE /api/detail
//   - POST /api/connect, /api/disconnect
//
// Example Usage:
//
//	notices := server.NewNotices(0, logger)
//	view := &server.View{}
//	engine, _ := llm.New(tracing.Config{Notifier: notices, Navigator: view, ...})
//	srv := server.New(engine, server.Options{Addr: cfg.Server.Addr(), Notices: notices, View: view})
//	err := srv.Run(ctx)
package server

// Package ws streams live trace feed state to dashboard clients.
//
// A client receives a full snapshot on connect and a fresh snapshot after
// every burst of engine changes. Bursts are coalesced per client so a slow
// reader never blocks the engine.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot: Request the current snapshot
//
// Message Types (Server → Client):
//   - snapshot: Full engine state
//   - change: Changed facets plus the resulting state
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler[llm.Trace](engine, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws

// Package client provides the REST client for the AgentOS console API.
//
// Built on go-resty/resty over a go-retryablehttp transport:
//   - Retries with exponential backoff on connection errors and 5xx
//   - Client-side rate limiting with x/time/rate
//   - A circuit breaker that fails fast while the backend is down
//   - Bearer authentication resolved per request
//   - An X-Request-ID header on every call
//
// Non-2xx responses surface as *APIError with the server's message.
//
// Example Usage:
//
//	c := client.New(client.Options{
//		BaseURL: "http://localhost:8080/backend-api/api",
//		Tokens:  store,
//		Logger:  logger,
//	})
//	var stats llm.Statistics
//	err := c.Get(ctx, "/tracing/llm/statistics", &stats)
package client

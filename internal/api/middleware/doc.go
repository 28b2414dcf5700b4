// Package middleware provides HTTP middleware for the local dashboard server.
//
// Middleware stack includes:
//   - CORS: local dashboard origins, including websocket upgrades
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - RequestLogger: request IDs and structured access logs
//
// Example Usage:
//
//	router.Use(middleware.RequestLogger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware

// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Both write to stderr by default, leaving stdout to command output. The
// level is shared by every Component and can be changed at runtime through
// Level, which the dashboard mounts at /log/level.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//		return err
//	}
//	defer logger.Close()
//	feed := logger.Component("tracing", zap.String("kind", "llm"))
//	feed.Info("push channel connected", zap.Int("attempt", 2))
package logging

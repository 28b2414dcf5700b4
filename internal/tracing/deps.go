package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Requester performs JSON REST calls against the console API. Paths are
// relative to the API base URL.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Conn is a duplex text-message channel.
type Conn interface {
	Send(payload []byte) error
	// Receive blocks for the next message. When the channel ends it returns
	// an error; a *CloseError in the chain carries the close classification.
	Receive() ([]byte, error)
	// Close performs a clean close. It is safe to call more than once.
	Close() error
}

// Dialer opens push channels.
type Dialer interface {
	Dial(ctx context.Context, path string) (Conn, error)
}

// CredentialProvider returns the bearer token attached to REST calls and the
// push channel auth frame.
type CredentialProvider interface {
	Token() string
}

// Navigator moves the hosting surface between list and detail views.
type Navigator interface {
	Navigate(path string)
}

// Notifier surfaces user-visible messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// MetricsRecorder receives engine telemetry.
type MetricsRecorder interface {
	ObserveQuery(kind, op string, ok bool, duration time.Duration)
	ObservePushEvent(kind, eventType, outcome string)
	SetConnectionState(kind, state string)
	IncReconnect(kind string)
}

// CloseError describes how a push channel ended. Clean closes (a completed
// close handshake) are never retried.
type CloseError struct {
	Code   int
	Reason string
	Clean  bool
	Err    error
}

func (e *CloseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("channel closed (code %d, clean=%t): %v", e.Code, e.Clean, e.Err)
	}
	return fmt.Sprintf("channel closed (code %d, clean=%t): %s", e.Code, e.Clean, e.Reason)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}

// IsCleanClose reports whether err records a clean channel close.
func IsCleanClose(err error) bool {
	var ce *CloseError
	return errors.As(err, &ce) && ce.Clean
}

// LogNotifier writes notices to a logger. It is the default Notifier.
type LogNotifier struct {
	Logger *zap.Logger
}

// Success logs at info level.
func (n LogNotifier) Success(message string) {
	if n.Logger != nil {
		n.Logger.Info(message)
	}
}

// Error logs at error level.
func (n LogNotifier) Error(message string) {
	if n.Logger != nil {
		n.Logger.Error(message)
	}
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// StaticToken is a fixed CredentialProvider.
type StaticToken string

// Token returns the token.
func (s StaticToken) Token() string {
	return string(s)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

type nopMetrics struct{}

func (nopMetrics) ObserveQuery(string, string, bool, time.Duration) {}
func (nopMetrics) ObservePushEvent(string, string, string)          {}
func (nopMetrics) SetConnectionState(string, string)                {}
func (nopMetrics) IncReconnect(string)                              {}

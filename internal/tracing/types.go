package tracing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a trace.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the trace has completed.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Timestamp accepts the timestamp layouts emitted by the tracing backend,
// with or without a zone offset. Values without an offset are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return fmt.Errorf("timestamp: %s is not a string", raw)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendQuote(nil, t.Time.Format(time.RFC3339Nano)), nil
}

// Trace is one observed unit of work. Kind-specific records embed it.
type Trace struct {
	ID           int64           `json:"id"`
	TraceID      string          `json:"trace_id"`
	RequestTime  Timestamp       `json:"request_time"`
	ResponseTime *Timestamp      `json:"response_time"`
	Duration     *float64        `json:"duration"`
	Status       Status          `json:"status"`
	Error        *string         `json:"error"`
	Request      json.RawMessage `json:"request,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
}

// Base returns the common trace header. Embedding Trace makes any struct a Record.
func (t Trace) Base() Trace {
	return t
}

var (
	ErrMissingTraceID     = errors.New("trace has no trace_id")
	ErrCompletionMismatch = errors.New("response_time and duration must be set together")
	ErrStatusMismatch     = errors.New("status disagrees with response_time")
)

// Validate checks the record invariants. The engine only logs violations;
// server data is never dropped for failing validation.
func (t Trace) Validate() error {
	if t.TraceID == "" {
		return ErrMissingTraceID
	}
	hasResponse := t.ResponseTime != nil && !t.ResponseTime.IsZero()
	if hasResponse != (t.Duration != nil) {
		return ErrCompletionMismatch
	}
	if t.Status.Terminal() != hasResponse {
		return fmt.Errorf("%w: status=%s", ErrStatusMismatch, t.Status)
	}
	return nil
}

// Record is the constraint for trace types handled by the engine.
type Record interface {
	Base() Trace
}

// PagedResponse is the body returned by the paged trace query.
type PagedResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// ConnectionState is the push channel lifecycle state.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns the string representation of the state
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ConnectionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "disconnected":
		*s = StateDisconnected
	case "connecting":
		*s = StateConnecting
	case "connected":
		*s = StateConnected
	default:
		return fmt.Errorf("unknown connection state %q", text)
	}
	return nil
}

// EventType tags server push frames.
type EventType string

const (
	EventNew    EventType = "new"
	EventUpdate EventType = "update"
)

// pushFrame is a server to client message on the push channel.
type pushFrame struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// authFrame is the first frame sent after the channel opens.
type authFrame struct {
	Token string `json:"token"`
}

// subscribeFrame declares interest in one trace kind.
type subscribeFrame struct {
	Action     string `json:"action"`
	TracerType string `json:"tracer_type"`
}

// Severity hints how a statistic should be highlighted.
type Severity string

const (
	SeverityNone    Severity = ""
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Statistic is one labelled aggregate value produced by a delegate.
type Statistic struct {
	Label    string   `json:"label"`
	Value    float64  `json:"value"`
	Display  string   `json:"display"`
	Severity Severity `json:"severity,omitempty"`
}

// FilterOption is one selectable value for a filter key.
type FilterOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterKey maps a delegate filter name onto the query body parameter and,
// optionally, a route query parameter used by Initialize.
type FilterKey struct {
	Name       string
	Param      string
	RouteParam string
	Label      string
}

// Field describes one list column or detail row for records of type T.
type Field[T any] struct {
	Label  string
	Key    string
	Width  int
	Format func(T) string
}

// Render formats rec using the field's formatter.
func (f Field[T]) Render(rec T) string {
	if f.Format == nil {
		return ""
	}
	return f.Format(rec)
}

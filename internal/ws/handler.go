package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/console/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/console/internal/shared/utils"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from loopback
	},
}

// Source is the engine surface the stream needs.
type Source[T any] interface {
	Subscribe(fn func(tracing.Change)) func()
	Snapshot() tracing.Snapshot[T]
}

// Message is one frame sent to a dashboard client.
type Message struct {
	Type      string   `json:"type"`
	Changes   []string `json:"changes,omitempty"`
	Data      any      `json:"data,omitempty"`
	Message   string   `json:"message,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

type inbound struct {
	Type string `json:"type"`
}

// Handler streams engine state to dashboard clients.
type Handler[T any] struct {
	source Source[T]
	logger *zap.Logger
}

// NewHandler creates a new stream handler
func NewHandler[T any](source Source[T], logger *zap.Logger) *Handler[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler[T]{source: source, logger: logger.Named("ws")}
}

// HandleConnection upgrades the request and streams snapshots until the
// client goes away.
func (h *Handler[T]) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(utils.MaxMessageSize)

	logger := h.logger.With(zap.Stringer("stream_id", id.NewStreamID()))
	logger.Debug("dashboard client connected", zap.String("remote", c.ClientIP()))

	s := &stream[T]{conn: conn, kick: make(chan struct{}, 1), done: make(chan struct{})}

	if err := s.send(Message{Type: "snapshot", Data: h.source.Snapshot()}); err != nil {
		return
	}

	cancel := h.source.Subscribe(s.note)
	defer cancel()

	go s.forward(h.source)
	defer close(s.done)

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			s.send(Message{Type: "pong"})
		case "snapshot":
			s.send(Message{Type: "snapshot", Data: h.source.Snapshot()})
		default:
			s.sendError("unknown message type")
		}
	}
}

// stream serializes writes for one client and coalesces change bursts.
type stream[T any] struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[tracing.Change]struct{}

	kick chan struct{}
	done chan struct{}
}

func (s *stream[T]) note(c tracing.Change) {
	s.pendingMu.Lock()
	if s.pending == nil {
		s.pending = make(map[tracing.Change]struct{})
	}
	s.pending[c] = struct{}{}
	s.pendingMu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *stream[T]) take() []string {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	out := make([]string, 0, len(s.pending))
	for c := tracing.ChangePage; c <= tracing.ChangeFilters; c++ {
		if _, ok := s.pending[c]; ok {
			out = append(out, c.String())
		}
	}
	s.pending = nil
	return out
}

func (s *stream[T]) forward(source Source[T]) {
	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
			changes := s.take()
			if len(changes) == 0 {
				continue
			}
			if err := s.send(Message{Type: "change", Changes: changes, Data: source.Snapshot()}); err != nil {
				return
			}
		}
	}
}

func (s *stream[T]) send(msg Message) error {
	msg.Timestamp = time.Now().Unix()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *stream[T]) sendError(msg string) error {
	return s.send(Message{Type: "error", Message: msg})
}

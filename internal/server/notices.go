package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultNoticeCapacity = 50

// Notice is one user-visible message raised by the engine.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notices keeps the most recent notices and logs each one. It implements
// tracing.Notifier.
type Notices struct {
	mu     sync.Mutex
	items  []Notice
	limit  int
	logger *zap.Logger
}

// NewNotices keeps up to limit notices; limit <= 0 selects the default.
func NewNotices(limit int, logger *zap.Logger) *Notices {
	if limit <= 0 {
		limit = defaultNoticeCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notices{limit: limit, logger: logger}
}

// Success records an informational notice.
func (n *Notices) Success(message string) {
	n.logger.Info(message)
	n.add("success", message)
}

// Error records an error notice.
func (n *Notices) Error(message string) {
	n.logger.Warn(message)
	n.add("error", message)
}

func (n *Notices) add(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notice{Level: level, Message: message, At: time.Now()})
	if over := len(n.items) - n.limit; over > 0 {
		n.items = append(n.items[:0:0], n.items[over:]...)
	}
}

// List returns the retained notices, oldest first.
func (n *Notices) List() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice{}, n.items...)
}

// View tracks where the engine last navigated. It implements
// tracing.Navigator.
type View struct {
	mu   sync.Mutex
	path string
}

// Navigate records path.
func (v *View) Navigate(path string) {
	v.mu.Lock()
	v.path = path
	v.mu.Unlock()
}

// Path returns the last navigated path.
func (v *View) Path() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

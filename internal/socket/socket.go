// Package socket adapts gorilla/websocket to the tracing push channel.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
)

// Options configures a Dialer.
type Options struct {
	// BaseURL is the API base; http and https map to ws and wss
	BaseURL          string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
	Compression      bool
	Header           http.Header
	Logger           *zap.Logger
}

// OptionsFromConfig maps loaded configuration onto dialer options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:          cfg.API.URL,
		HandshakeTimeout: cfg.Socket.HandshakeTimeout,
		WriteTimeout:     cfg.Socket.WriteTimeout,
		ReadLimit:        cfg.Socket.ReadLimit,
		Compression:      cfg.Socket.Compression,
	}
}

// Dialer opens push channels relative to a base URL.
type Dialer struct {
	base   *url.URL
	opts   Options
	dialer *websocket.Dialer
	logger *zap.Logger
}

var _ tracing.Dialer = (*Dialer)(nil)

// NewDialer validates opts.BaseURL and builds a dialer.
func NewDialer(opts Options) (*Dialer, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch base.Scheme {
	case "http", "ws":
		base.Scheme = "ws"
	case "https", "wss":
		base.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dialer{
		base: base,
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			HandshakeTimeout:  opts.HandshakeTimeout,
			EnableCompression: opts.Compression,
		},
		logger: logger.Named("socket"),
	}, nil
}

// URL resolves path against the base URL.
func (d *Dialer) URL(path string) string {
	u := *d.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// Dial opens a channel to path.
func (d *Dialer) Dial(ctx context.Context, path string) (tracing.Conn, error) {
	target := d.URL(path)
	ws, resp, err := d.dialer.DialContext(ctx, target, d.opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	if d.opts.ReadLimit > 0 {
		ws.SetReadLimit(d.opts.ReadLimit)
	}
	d.logger.Debug("channel open", zap.String("url", target))
	return &Conn{ws: ws, writeTimeout: d.opts.WriteTimeout}, nil
}

// Conn is an open push channel.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closedMu  sync.Mutex
	closed    bool
}

var _ tracing.Conn = (*Conn)(nil)

// Send writes one text message.
func (c *Conn) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive blocks for the next data message. The returned error always
// wraps a *tracing.CloseError describing how the channel ended.
func (c *Conn) Receive() ([]byte, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, c.classify(err)
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a normal closure frame and releases the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// classify maps a read error onto a close classification. A close frame
// from the peer is clean unless its code reports an abnormal end; any other
// failure is unclean unless this side closed first.
func (c *Conn) classify(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		clean := ce.Code != websocket.CloseAbnormalClosure && ce.Code != websocket.CloseTLSHandshake
		return &tracing.CloseError{Code: ce.Code, Reason: ce.Text, Clean: clean, Err: err}
	}

	c.closedMu.Lock()
	local := c.closed
	c.closedMu.Unlock()
	if local {
		return &tracing.CloseError{Code: websocket.CloseNormalClosure, Clean: true, Err: err}
	}
	return &tracing.CloseError{Code: websocket.CloseAbnormalClosure, Err: err}
}

package tracing

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

var errNoDialer = errors.New("tracing engine has no dialer")

// Connect opens the push channel, resetting the reconnect budget. Any
// channel still open is closed first. It returns once the channel is open
// and the auth and subscribe frames are sent, or the attempt has failed.
func (e *Engine[T, S]) Connect(ctx context.Context) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.failures = 0
	e.terminal = false
	e.mu.Unlock()
	return e.connect(ctx)
}

// Disconnect cancels any pending reconnect and closes the channel cleanly.
// Nothing from the torn-down channel can schedule another reconnect.
func (e *Engine[T, S]) Disconnect() {
	e.mu.Lock()
	e.stopTimerLocked()
	conn := e.conn
	e.conn = nil
	e.generation++
	changed := e.state != StateDisconnected
	e.state = StateDisconnected
	e.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			e.logger.Debug("closing push channel", zap.Error(err))
		}
	}
	if changed {
		e.metrics.SetConnectionState(e.kind, StateDisconnected.String())
		e.emit(ChangeConnection)
	}
}

// ReconnectExhausted reports whether automatic reconnection gave up.
func (e *Engine[T, S]) ReconnectExhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminal
}

// ReconnectPending reports whether a reconnect timer is armed.
func (e *Engine[T, S]) ReconnectPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer != nil
}

func (e *Engine[T, S]) connect(ctx context.Context) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.stopTimerLocked()
	prev := e.conn
	e.conn = nil
	e.generation++
	gen := e.generation
	e.state = StateConnecting
	attempt := e.failures
	e.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	e.metrics.SetConnectionState(e.kind, StateConnecting.String())
	e.emit(ChangeConnection)

	conn, err := e.open(ctx)
	if err != nil {
		e.logger.Warn("push channel connect failed", zap.Int("attempt", attempt), zap.Error(err))
		e.notify.Error(msgConnectFailed)
		e.handleClose(gen, err)
		return false
	}

	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		_ = conn.Close()
		return false
	}
	e.conn = conn
	e.state = StateConnected
	e.failures = 0
	e.stopTimerLocked()
	e.mu.Unlock()

	e.logger.Info("push channel connected", zap.Int("attempt", attempt))
	e.metrics.SetConnectionState(e.kind, StateConnected.String())
	e.notify.Success(msgConnected)
	e.emit(ChangeConnection)

	go e.readLoop(gen, conn)
	return true
}

// open dials the channel and sends the auth and subscribe frames.
func (e *Engine[T, S]) open(ctx context.Context) (Conn, error) {
	if e.dialer == nil {
		return nil, errNoDialer
	}
	conn, err := e.dialer.Dial(ctx, e.socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", e.socketPath, err)
	}

	frames := []any{
		authFrame{Token: e.creds.Token()},
		subscribeFrame{Action: "subscribe", TracerType: e.kind},
	}
	for _, frame := range frames {
		payload, err := sonic.Marshal(frame)
		if err == nil {
			err = conn.Send(payload)
		}
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("send handshake: %w", err)
		}
	}
	return conn, nil
}

func (e *Engine[T, S]) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.Receive()
		if err != nil {
			e.handleClose(gen, err)
			return
		}
		e.handleMessage(gen, data)
	}
}

// handleClose moves to disconnected and decides whether to retry. Events
// from a superseded channel are ignored.
func (e *Engine[T, S]) handleClose(gen uint64, cause error) {
	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.conn = nil
	e.state = StateDisconnected
	clean := IsCleanClose(cause)
	schedule, exhausted := false, false
	if !clean {
		e.failures++
		if e.failures < e.maxAttempts {
			e.scheduleReconnectLocked()
			schedule = true
		} else {
			e.terminal = true
			exhausted = true
		}
	}
	failures := e.failures
	e.mu.Unlock()

	e.metrics.SetConnectionState(e.kind, StateDisconnected.String())
	e.emit(ChangeConnection)

	switch {
	case clean:
		e.logger.Info("push channel closed", zap.Error(cause))
	case schedule:
		e.logger.Warn("push channel lost, reconnect scheduled",
			zap.Int("failures", failures),
			zap.Duration("delay", e.interval),
			zap.Error(cause))
	case exhausted:
		e.logger.Error("push channel reconnect limit reached",
			zap.Int("failures", failures),
			zap.Error(cause))
		e.notify.Error(msgReconnectLimit)
	}
}

func (e *Engine[T, S]) scheduleReconnectLocked() {
	e.stopTimerLocked()
	seq := e.timerSeq
	e.timer = e.clock.AfterFunc(e.interval, func() { e.fireReconnect(seq) })
}

// stopTimerLocked cancels the pending reconnect. Bumping timerSeq also
// neutralises a callback that already fired but has not taken the lock.
func (e *Engine[T, S]) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerSeq++
}

func (e *Engine[T, S]) fireReconnect(seq uint64) {
	e.mu.Lock()
	if e.closed || seq != e.timerSeq {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	failures := e.failures
	e.mu.Unlock()

	e.metrics.IncReconnect(e.kind)
	e.logger.Info("reconnecting push channel", zap.Int("failures", failures))
	e.connect(e.ctx)
}

// handleMessage decodes one push frame and merges it into the page.
func (e *Engine[T, S]) handleMessage(gen uint64, data []byte) {
	var frame pushFrame
	if err := sonic.Unmarshal(data, &frame); err != nil {
		e.logger.Warn("dropping malformed push message", zap.Error(err))
		e.metrics.ObservePushEvent(e.kind, "unknown", outcomeMalformed)
		return
	}
	if frame.Type != EventNew && frame.Type != EventUpdate {
		e.logger.Debug("ignoring push message", zap.String("type", string(frame.Type)))
		e.metrics.ObservePushEvent(e.kind, string(frame.Type), outcomeIgnored)
		return
	}
	var rec T
	if err := sonic.Unmarshal(frame.Data, &rec); err != nil || rec.Base().TraceID == "" {
		if err == nil {
			err = ErrMissingTraceID
		}
		e.logger.Warn("dropping malformed push trace", zap.String("type", string(frame.Type)), zap.Error(err))
		e.metrics.ObservePushEvent(e.kind, string(frame.Type), outcomeMalformed)
		return
	}

	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		return
	}
	outcome := e.mergeLocked(frame.Type, rec)
	detailChanged := false
	if e.detail != nil && (*e.detail).Base().TraceID == rec.Base().TraceID {
		e.detail = &rec
		detailChanged = true
	}
	e.mu.Unlock()

	e.logger.Debug("push event",
		zap.String("type", string(frame.Type)),
		zap.String("trace_id", rec.Base().TraceID),
		zap.String("outcome", outcome))
	e.metrics.ObservePushEvent(e.kind, string(frame.Type), outcome)

	changes := []Change{ChangePage}
	if detailChanged {
		changes = append(changes, ChangeDetail)
	}
	e.emit(changes...)
	e.requestStatistics()
}

// mergeLocked applies a push event to the page. New traces only join the
// visible list on an unfiltered first page, since filters are evaluated by
// the server; updates refine rows already shown wherever they are.
func (e *Engine[T, S]) mergeLocked(typ EventType, rec T) string {
	if typ == EventUpdate || indexOf(e.items, rec.Base().TraceID) >= 0 {
		items, ok := replace(e.items, rec)
		if !ok {
			return outcomeMissing
		}
		e.items = items
		return outcomeReplaced
	}

	e.total++
	e.totalPages = pageCount(e.total, e.pageSize)
	if e.page != 1 || e.filters.ActiveFor(e.delegate.FilterKeys()) {
		return outcomeSuppressed
	}
	e.items = prepend(e.items, rec, e.pageSize)
	return outcomeMerged
}

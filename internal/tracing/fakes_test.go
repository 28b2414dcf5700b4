package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testTrace struct {
	Trace
	Model string `json:"model"`
}

type testStats struct {
	Total  int      `json:"total"`
	Models []string `json:"models"`
}

type testDelegate struct {
	mu     sync.Mutex
	models []FilterOption
}

func (d *testDelegate) FilterKeys() []FilterKey {
	return []FilterKey{
		{Name: "model", Param: "model_id", RouteParam: "model", Label: "Model"},
		{Name: "status", Param: "status", RouteParam: "status", Label: "Status"},
	}
}

func (d *testDelegate) FilterOptions() map[string][]FilterOption {
	d.mu.Lock()
	defer d.mu.Unlock()
	return map[string][]FilterOption{"model": append([]FilterOption(nil), d.models...)}
}

func (d *testDelegate) UpdateFilterOptions(stats testStats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.models = d.models[:0]
	for _, m := range stats.Models {
		d.models = append(d.models, FilterOption{Label: m, Value: m})
	}
}

func (d *testDelegate) FormatStatistics(stats testStats) []Statistic {
	return []Statistic{{Label: "Total", Value: float64(stats.Total), Display: strconv.Itoa(stats.Total)}}
}

func (d *testDelegate) TableFields() []Field[testTrace] {
	return []Field[testTrace]{{Label: "Model", Key: "model", Format: func(t testTrace) string { return t.Model }}}
}

func (d *testDelegate) DetailFields() []Field[testTrace] {
	return d.TableFields()
}

func makeTrace(id string) testTrace {
	return testTrace{
		Trace: Trace{
			TraceID:     id,
			RequestTime: Timestamp{Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
			Status:      StatusPending,
		},
		Model: "gpt-4",
	}
}

func makeTraces(prefix string, n int) []testTrace {
	out := make([]testTrace, n)
	for i := range out {
		out[i] = makeTrace(fmt.Sprintf("%s-%d", prefix, i))
	}
	return out
}

// fakeRequester serves canned pages, statistics and details. Responses go
// through a JSON round trip like the real client.
type fakeRequester struct {
	mu         sync.Mutex
	page       PagedResponse[testTrace]
	pageErr    error
	stats      testStats
	statsErr   error
	details    map[string]testTrace
	bodies     []map[string]any
	paths      []string
	statsCalls int
}

func (r *fakeRequester) Post(_ context.Context, path string, body, out any) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	if m, ok := body.(map[string]any); ok {
		r.bodies = append(r.bodies, m)
	}
	resp, err := r.page, r.pageErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return roundTrip(resp, out)
}

func (r *fakeRequester) Get(_ context.Context, path string, out any) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	switch {
	case strings.HasSuffix(path, "/statistics"):
		r.statsCalls++
		stats, err := r.stats, r.statsErr
		r.mu.Unlock()
		if err != nil {
			return err
		}
		return roundTrip(stats, out)
	case strings.Contains(path, "/detail/"):
		id := path[strings.LastIndex(path, "/")+1:]
		rec, ok := r.details[id]
		r.mu.Unlock()
		if !ok {
			return errors.New("404 not found")
		}
		return roundTrip(rec, out)
	}
	r.mu.Unlock()
	return fmt.Errorf("unexpected path %s", path)
}

func (r *fakeRequester) setPage(items []testTrace, total, page, pageSize int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.page = PagedResponse[testTrace]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pageCount(total, pageSize),
	}
	r.pageErr = nil
}

func (r *fakeRequester) failPages(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageErr = err
}

func (r *fakeRequester) lastBody() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bodies) == 0 {
		return nil
	}
	return r.bodies[len(r.bodies)-1]
}

func (r *fakeRequester) statisticsCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statsCalls
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

type fakeConn struct {
	mu      sync.Mutex
	sent    [][]byte
	inbound chan []byte
	ended   chan error
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		ended:   make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	case err := <-c.ended:
		return nil, err
	case <-c.closed:
		return nil, &CloseError{Code: 1000, Clean: true}
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sentFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, p := range c.sent {
		out[i] = string(p)
	}
	return out
}

// push delivers a frame built from typ and rec.
func (c *fakeConn) push(t *testing.T, typ EventType, rec any) {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	frame, err := json.Marshal(map[string]any{"type": typ, "data": json.RawMessage(data)})
	require.NoError(t, err)
	c.inbound <- frame
}

// drop ends the channel without a close handshake.
func (c *fakeConn) drop() {
	c.ended <- &CloseError{Code: 1006, Err: errors.New("connection reset")}
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	paths []string
	err   error
}

func (d *fakeDialer) Dial(_ context.Context, path string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paths = append(d.paths, path)
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.paths)
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualClock only runs callbacks when the test fires them.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs every pending callback and returns how many ran.
func (c *manualClock) fire() int {
	timers := c.pending()
	c.mu.Lock()
	for _, t := range timers {
		t.fired = true
	}
	c.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
	return len(timers)
}

func (c *manualClock) all() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*manualTimer(nil), c.timers...)
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

type harness struct {
	engine    *Engine[testTrace, testStats]
	requester *fakeRequester
	dialer    *fakeDialer
	clock     *manualClock
	notifier  *recordingNotifier
	delegate  *testDelegate
	paths     []string
	pathsMu   sync.Mutex
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		requester: &fakeRequester{details: map[string]testTrace{}},
		dialer:    &fakeDialer{},
		clock:     &manualClock{},
		notifier:  &recordingNotifier{},
		delegate:  &testDelegate{},
	}
	engine, err := New[testTrace, testStats](Config{
		Kind:        "llm",
		Requester:   h.requester,
		Dialer:      h.dialer,
		Credentials: StaticToken("secret"),
		Navigator: NavigatorFunc(func(path string) {
			h.pathsMu.Lock()
			defer h.pathsMu.Unlock()
			h.paths = append(h.paths, path)
		}),
		Notifier: h.notifier,
		Clock:    h.clock,
		Logger:   zap.NewNop(),
	}, h.delegate)
	require.NoError(t, err)
	h.engine = engine
	t.Cleanup(engine.Close)
	return h
}

// seed loads a first page of n traces out of total.
func (h *harness) seed(t *testing.T, n, total int) []testTrace {
	t.Helper()
	items := makeTraces("seed", n)
	h.requester.setPage(items, total, 1, DefaultPageSize)
	require.True(t, h.engine.FetchPage(context.Background()))
	return items
}

// connect opens the push channel and returns the live fake connection.
func (h *harness) connect(t *testing.T) *fakeConn {
	t.Helper()
	require.True(t, h.engine.Connect(context.Background()))
	conn := h.dialer.last()
	require.NotNil(t, conn)
	return conn
}

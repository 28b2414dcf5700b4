package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/console/internal/shared/id"
)

// Defaults applied by New when Config leaves a field unset.
const (
	DefaultPageSize             = 20
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectInterval    = 3 * time.Second
	DefaultSocketPath           = "/tracing/ws"
)

// User-visible notices.
const (
	msgFetchFailed    = "failed to fetch traces"
	msgDetailFailed   = "failed to fetch trace detail"
	msgConnected      = "connected to tracing feed"
	msgConnectFailed  = "failed to connect to tracing feed"
	msgReconnectLimit = "tracing feed reconnect limit reached, refresh manually to retry"
)

var ErrNoRequester = errors.New("tracing engine requires a requester")

// ErrUnknownFilter is returned by SetFilter for names the delegate does not
// declare.
var ErrUnknownFilter = errors.New("unknown filter")

// Config wires an engine to its collaborators. Kind and Requester are
// required; everything else has a default.
type Config struct {
	Kind        string
	Requester   Requester
	Dialer      Dialer
	Credentials CredentialProvider
	Navigator   Navigator
	Notifier    Notifier
	Metrics     MetricsRecorder
	Clock       Clock
	Logger      *zap.Logger

	PageSize             int
	MaxReconnectAttempts int
	ReconnectInterval    time.Duration
	SocketPath           string
}

// Change identifies which part of the engine state changed.
type Change int

const (
	ChangePage Change = iota
	ChangeStatistics
	ChangeDetail
	ChangeConnection
	ChangeLoading
	ChangeFilters
)

// String returns the string representation of the change
func (c Change) String() string {
	switch c {
	case ChangePage:
		return "page"
	case ChangeStatistics:
		return "statistics"
	case ChangeDetail:
		return "detail"
	case ChangeConnection:
		return "connection"
	case ChangeLoading:
		return "loading"
	case ChangeFilters:
		return "filters"
	default:
		return "unknown"
	}
}

// Engine reconciles a paged, filtered trace query with push updates for a
// single trace kind. All state is guarded by one mutex, so push handlers and
// fetch results never interleave; fetches release the lock while waiting on
// the network and apply their result afterwards.
type Engine[T Record, S any] struct {
	kind      string
	id        string
	delegate  Delegate[T, S]
	requester Requester
	dialer    Dialer
	creds     CredentialProvider
	nav       Navigator
	notify    Notifier
	metrics   MetricsRecorder
	clock     Clock
	logger    *zap.Logger

	maxAttempts int
	interval    time.Duration
	socketPath  string

	mu         sync.Mutex
	items      []T
	total      int
	page       int
	pageSize   int
	totalPages int
	filters    Filters
	stats      *S
	detail     *T
	loading    int
	closed     bool

	state      ConnectionState
	conn       Conn
	generation uint64
	failures   int
	terminal   bool
	timer      Timer
	timerSeq   uint64

	listenersMu sync.Mutex
	listeners   map[int]func(Change)
	nextID      int

	statsKick chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates an engine bound to cfg.Kind and starts its statistics worker.
// Call Close to release it.
func New[T Record, S any](cfg Config, delegate Delegate[T, S]) (*Engine[T, S], error) {
	if cfg.Kind == "" {
		return nil, errors.New("tracing engine requires a kind")
	}
	if delegate == nil {
		return nil, errors.New("tracing engine requires a delegate")
	}
	if cfg.Requester == nil {
		return nil, ErrNoRequester
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engineID := id.NewEngineID().String()
	logger = logger.Named("tracing").With(zap.String("kind", cfg.Kind), zap.String("engine_id", engineID))

	e := &Engine[T, S]{
		kind:        cfg.Kind,
		id:          engineID,
		delegate:    delegate,
		requester:   cfg.Requester,
		dialer:      cfg.Dialer,
		creds:       cfg.Credentials,
		nav:         cfg.Navigator,
		notify:      cfg.Notifier,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
		logger:      logger,
		maxAttempts: cfg.MaxReconnectAttempts,
		interval:    cfg.ReconnectInterval,
		socketPath:  cfg.SocketPath,
		page:        1,
		pageSize:    cfg.PageSize,
		totalPages:  1,
		filters:     Filters{Values: map[string]string{}},
		listeners:   make(map[int]func(Change)),
		statsKick:   make(chan struct{}, 1),
	}
	if e.creds == nil {
		e.creds = StaticToken("")
	}
	if e.nav == nil {
		e.nav = nopNavigator{}
	}
	if e.notify == nil {
		e.notify = LogNotifier{Logger: logger}
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	if e.clock == nil {
		e.clock = SystemClock
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = DefaultMaxReconnectAttempts
	}
	if e.interval <= 0 {
		e.interval = DefaultReconnectInterval
	}
	if e.socketPath == "" {
		e.socketPath = DefaultSocketPath
	}
	if e.pageSize <= 0 {
		e.pageSize = DefaultPageSize
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.metrics.SetConnectionState(e.kind, StateDisconnected.String())
	go e.statisticsWorker()
	return e, nil
}

// Close disconnects the push channel, stops background work and discards
// any result that arrives afterwards. It is idempotent.
func (e *Engine[T, S]) Close() {
	e.Disconnect()
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
}

// Kind returns the trace kind this engine is bound to.
func (e *Engine[T, S]) Kind() string { return e.kind }

// ID returns the engine's log identifier.
func (e *Engine[T, S]) ID() string { return e.id }

// Delegate returns the kind delegate.
func (e *Engine[T, S]) Delegate() Delegate[T, S] { return e.delegate }

// Subscribe registers fn to be called after each state change. Callbacks run
// outside the engine lock on the goroutine that made the change. The
// returned function removes the subscription.
func (e *Engine[T, S]) Subscribe(fn func(Change)) func() {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	key := e.nextID
	e.nextID++
	e.listeners[key] = fn
	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		delete(e.listeners, key)
	}
}

func (e *Engine[T, S]) emit(changes ...Change) {
	e.listenersMu.Lock()
	fns := make([]func(Change), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.listenersMu.Unlock()
	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}

func (e *Engine[T, S]) path(parts ...string) string {
	p := "/tracing/" + url.PathEscape(e.kind)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Traces returns a copy of the visible page.
func (e *Engine[T, S]) Traces() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]T, len(e.items))
	copy(out, e.items)
	return out
}

// Total returns the known total number of matching traces.
func (e *Engine[T, S]) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// Page returns the current page number (1-based).
func (e *Engine[T, S]) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// PageSize returns the current page size.
func (e *Engine[T, S]) PageSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageSize
}

// TotalPages returns the page count from the last successful fetch.
func (e *Engine[T, S]) TotalPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalPages
}

// Filters returns a copy of the filter state.
func (e *Engine[T, S]) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters.clone()
}

// Statistics returns the latest statistics snapshot.
func (e *Engine[T, S]) Statistics() (S, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stats == nil {
		var zero S
		return zero, false
	}
	return *e.stats, true
}

// FormattedStatistics projects the latest snapshot through the delegate.
func (e *Engine[T, S]) FormattedStatistics() []Statistic {
	stats, ok := e.Statistics()
	if !ok {
		return []Statistic{}
	}
	return e.delegate.FormatStatistics(stats)
}

// FilterOptions returns the delegate's current filter options.
func (e *Engine[T, S]) FilterOptions() map[string][]FilterOption {
	return e.delegate.FilterOptions()
}

// Detail returns the trace shown in the detail view.
func (e *Engine[T, S]) Detail() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detail == nil {
		var zero T
		return zero, false
	}
	return *e.detail, true
}

// State returns the push channel state.
func (e *Engine[T, S]) State() ConnectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Connected reports whether the push channel is open.
func (e *Engine[T, S]) Connected() bool {
	return e.State() == StateConnected
}

// Loading reports whether a page or detail query is in flight.
func (e *Engine[T, S]) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading > 0
}

// Snapshot is a consistent copy of the engine's visible state.
type Snapshot[T any] struct {
	Kind       string          `json:"kind"`
	Items      []T             `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	Filters    Filters         `json:"filters"`
	Connection ConnectionState `json:"connection"`
	Loading    bool            `json:"loading"`
	Statistics []Statistic     `json:"statistics"`
}

// Snapshot returns the visible state taken under a single lock.
func (e *Engine[T, S]) Snapshot() Snapshot[T] {
	e.mu.Lock()
	snap := Snapshot[T]{
		Kind:       e.kind,
		Items:      make([]T, len(e.items)),
		Total:      e.total,
		Page:       e.page,
		PageSize:   e.pageSize,
		TotalPages: e.totalPages,
		Filters:    e.filters.clone(),
		Connection: e.state,
		Loading:    e.loading > 0,
	}
	copy(snap.Items, e.items)
	stats := e.stats
	e.mu.Unlock()

	snap.Statistics = []Statistic{}
	if stats != nil {
		snap.Statistics = e.delegate.FormatStatistics(*stats)
	}
	return snap
}

// ---------------------------------------------------------------------------
// Filter and paging mutators
// ---------------------------------------------------------------------------

// SetQuery sets the free-text filter without fetching.
func (e *Engine[T, S]) SetQuery(query string) {
	e.mu.Lock()
	e.filters.Query = query
	e.mu.Unlock()
	e.emit(ChangeFilters)
}

// HasFilter reports whether the delegate declares a filter called name.
func (e *Engine[T, S]) HasFilter(name string) bool {
	for _, key := range e.delegate.FilterKeys() {
		if key.Name == name {
			return true
		}
	}
	return false
}

// SetFilter sets or clears (empty value) a structured filter without
// fetching. Names the delegate does not declare are rejected with
// ErrUnknownFilter and leave the filter state untouched.
func (e *Engine[T, S]) SetFilter(name, value string) error {
	if !e.HasFilter(name) {
		return fmt.Errorf("%w %q", ErrUnknownFilter, name)
	}
	e.mu.Lock()
	if value == "" {
		delete(e.filters.Values, name)
	} else {
		e.filters.Values[name] = value
	}
	e.mu.Unlock()
	e.emit(ChangeFilters)
	return nil
}

// ApplyFilter pins the view to page 1 and re-fetches.
func (e *Engine[T, S]) ApplyFilter(ctx context.Context) bool {
	e.mu.Lock()
	e.page = 1
	e.mu.Unlock()
	return e.FetchPage(ctx)
}

// ResetFilter clears every filter, pins page 1 and re-fetches.
func (e *Engine[T, S]) ResetFilter(ctx context.Context) bool {
	e.mu.Lock()
	e.filters = Filters{Values: map[string]string{}}
	e.page = 1
	e.mu.Unlock()
	e.emit(ChangeFilters)
	return e.FetchPage(ctx)
}

// SetPage moves to page and re-fetches.
func (e *Engine[T, S]) SetPage(ctx context.Context, page int) bool {
	if page < 1 {
		page = 1
	}
	e.mu.Lock()
	e.page = page
	e.mu.Unlock()
	return e.FetchPage(ctx)
}

// SetPageSize changes the page size, pins page 1 and re-fetches.
func (e *Engine[T, S]) SetPageSize(ctx context.Context, size int) bool {
	if size <= 0 {
		size = DefaultPageSize
	}
	e.mu.Lock()
	e.pageSize = size
	e.page = 1
	e.mu.Unlock()
	return e.FetchPage(ctx)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// FetchPage queries the current page with the active filters. On success the
// page, total and page count are replaced together; on failure the previous
// page is kept and a notice is raised.
func (e *Engine[T, S]) FetchPage(ctx context.Context) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	page, pageSize := e.page, e.pageSize
	body := queryBody(page, pageSize, e.filters, e.delegate.FilterKeys())
	e.loading++
	e.mu.Unlock()
	e.emit(ChangeLoading)

	start := time.Now()
	var resp PagedResponse[T]
	err := e.requester.Post(ctx, e.path("traces"), body, &resp)
	e.metrics.ObserveQuery(e.kind, "traces", err == nil, time.Since(start))

	e.mu.Lock()
	e.loading--
	alive := !e.closed
	if err == nil && alive {
		items := resp.Items
		if items == nil {
			items = []T{}
		}
		e.items = items
		e.total = resp.Total
		e.totalPages = resp.TotalPages
		if e.totalPages < 1 {
			e.totalPages = 1
		}
	}
	e.mu.Unlock()

	if !alive {
		return false
	}
	if err != nil {
		e.logger.Error("failed to fetch traces",
			zap.Int("page", page),
			zap.Int("page_size", pageSize),
			zap.Error(err))
		e.notify.Error(msgFetchFailed)
		e.emit(ChangeLoading)
		return false
	}
	e.logger.Debug("fetched traces",
		zap.Int("page", page),
		zap.Int("items", len(resp.Items)),
		zap.Int("total", resp.Total))
	e.emit(ChangeLoading, ChangePage)
	return true
}

// FetchStatistics refreshes the aggregate snapshot and the delegate's
// derived filter options. Failures are logged only.
func (e *Engine[T, S]) FetchStatistics(ctx context.Context) bool {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return false
	}

	start := time.Now()
	var stats S
	err := e.requester.Get(ctx, e.path("statistics"), &stats)
	e.metrics.ObserveQuery(e.kind, "statistics", err == nil, time.Since(start))
	if err != nil {
		e.logger.Warn("failed to fetch statistics", zap.Error(err))
		return false
	}

	e.mu.Lock()
	alive := !e.closed
	if alive {
		e.stats = &stats
	}
	e.mu.Unlock()
	if !alive {
		return false
	}
	e.delegate.UpdateFilterOptions(stats)
	e.emit(ChangeStatistics)
	return true
}

// GetDetail fetches the full record for traceID and makes it the current
// detail. On failure it raises a notice and returns the zero value.
func (e *Engine[T, S]) GetDetail(ctx context.Context, traceID string) (T, bool) {
	var zero T
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return zero, false
	}
	e.loading++
	e.mu.Unlock()
	e.emit(ChangeLoading)

	start := time.Now()
	var rec T
	err := e.requester.Get(ctx, e.path("detail", url.PathEscape(traceID)), &rec)
	e.metrics.ObserveQuery(e.kind, "detail", err == nil, time.Since(start))

	e.mu.Lock()
	e.loading--
	alive := !e.closed
	if err == nil && alive {
		e.detail = &rec
	}
	e.mu.Unlock()

	if !alive {
		return zero, false
	}
	if err != nil {
		e.logger.Error("failed to fetch trace detail", zap.String("trace_id", traceID), zap.Error(err))
		e.notify.Error(msgDetailFailed)
		e.emit(ChangeLoading)
		return zero, false
	}
	if verr := rec.Base().Validate(); verr != nil {
		e.logger.Debug("trace detail violates invariants", zap.String("trace_id", traceID), zap.Error(verr))
	}
	e.emit(ChangeLoading, ChangeDetail)
	return rec, true
}

// CloseDetail clears the detail view.
func (e *Engine[T, S]) CloseDetail() {
	e.mu.Lock()
	e.detail = nil
	e.mu.Unlock()
	e.emit(ChangeDetail)
}

// ViewDetail navigates to the detail view of traceID.
func (e *Engine[T, S]) ViewDetail(traceID string) {
	e.nav.Navigate(fmt.Sprintf("/tracing/%s/detail/%s", url.PathEscape(e.kind), url.PathEscape(traceID)))
}

// BackToList navigates to the list view.
func (e *Engine[T, S]) BackToList() {
	e.nav.Navigate(fmt.Sprintf("/tracing/%s", url.PathEscape(e.kind)))
}

// Initialize seeds filters from route query parameters, loads the first page
// and statistics, then opens the push channel. It reports whether the page
// fetch succeeded.
func (e *Engine[T, S]) Initialize(ctx context.Context, route map[string]string) bool {
	seeded := false
	e.mu.Lock()
	for _, key := range e.delegate.FilterKeys() {
		if key.RouteParam == "" {
			continue
		}
		if v := route[key.RouteParam]; v != "" {
			e.filters.Values[key.Name] = v
			seeded = true
		}
	}
	e.mu.Unlock()
	if seeded {
		e.emit(ChangeFilters)
	}

	ok := e.FetchPage(ctx)
	e.FetchStatistics(ctx)
	e.Connect(ctx)
	return ok
}

// Refresh tears down the push channel, reloads page and statistics and
// reconnects.
func (e *Engine[T, S]) Refresh(ctx context.Context) bool {
	e.Disconnect()
	ok := e.FetchPage(ctx)
	e.FetchStatistics(ctx)
	e.Connect(ctx)
	return ok
}

// requestStatistics asks the worker for a refresh. Requests made while one
// is pending collapse into it.
func (e *Engine[T, S]) requestStatistics() {
	select {
	case e.statsKick <- struct{}{}:
	default:
	}
}

func (e *Engine[T, S]) statisticsWorker() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.statsKick:
			e.FetchStatistics(e.ctx)
		}
	}
}

package llm

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/AgentOS/console/internal/format"
	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
)

// Filter names understood by the delegate.
const (
	FilterModel   = "modelId"
	FilterBackend = "backendName"
	FilterStatus  = "status"
)

var statusLabels = map[tracing.Status]string{
	tracing.StatusPending: "Pending",
	tracing.StatusSuccess: "Success",
	tracing.StatusFailed:  "Failed",
}

// StatusOptions returns the fixed status filter options.
func StatusOptions() []tracing.FilterOption {
	return []tracing.FilterOption{
		{Label: statusLabels[tracing.StatusPending], Value: string(tracing.StatusPending)},
		{Label: statusLabels[tracing.StatusSuccess], Value: string(tracing.StatusSuccess)},
		{Label: statusLabels[tracing.StatusFailed], Value: string(tracing.StatusFailed)},
	}
}

// StatusLabel returns the display label for s. Unknown values read as pending.
func StatusLabel(s tracing.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[tracing.StatusPending]
}

// Delegate implements tracing.Delegate for LLM traces.
type Delegate struct {
	mu       sync.RWMutex
	models   []tracing.FilterOption
	backends []tracing.FilterOption
}

// NewDelegate creates a delegate with empty model and backend options.
func NewDelegate() *Delegate {
	return &Delegate{
		models:   []tracing.FilterOption{},
		backends: []tracing.FilterOption{},
	}
}

var _ tracing.Delegate[Trace, Statistics] = (*Delegate)(nil)

func (d *Delegate) FilterKeys() []tracing.FilterKey {
	return []tracing.FilterKey{
		{Name: FilterModel, Param: "model_id", RouteParam: "model", Label: "Model"},
		{Name: FilterBackend, Param: "backend_name", RouteParam: "backend", Label: "Backend"},
		{Name: FilterStatus, Param: "status", Label: "Status"},
	}
}

func (d *Delegate) FilterOptions() map[string][]tracing.FilterOption {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return map[string][]tracing.FilterOption{
		FilterModel:   append([]tracing.FilterOption{}, d.models...),
		FilterBackend: append([]tracing.FilterOption{}, d.backends...),
		FilterStatus:  StatusOptions(),
	}
}

// UpdateFilterOptions replaces the model and backend options with those
// present in stats. Status options never change.
func (d *Delegate) UpdateFilterOptions(stats Statistics) {
	models := make([]tracing.FilterOption, 0, len(stats.Models))
	for _, m := range stats.Models {
		models = append(models, tracing.FilterOption{Label: m.ModelID, Value: m.ModelID})
	}
	backends := make([]tracing.FilterOption, 0, len(stats.Backends))
	for _, b := range stats.Backends {
		backends = append(backends, tracing.FilterOption{Label: b.BackendName, Value: b.BackendName})
	}

	d.mu.Lock()
	d.models = models
	d.backends = backends
	d.mu.Unlock()
}

func (d *Delegate) FormatStatistics(stats Statistics) []tracing.Statistic {
	o := stats.Overview
	out := []tracing.Statistic{
		count("Total requests", o.TotalRequests, tracing.SeverityNone),
		count("Pending", o.PendingRequests, tracing.SeverityWarning),
		count("Succeeded", o.SuccessRequests, tracing.SeveritySuccess),
		count("Failed", o.FailedRequests, tracing.SeverityError),
		{
			Label:    "Total tokens",
			Value:    float64(o.TotalTokens),
			Display:  format.Compact(float64(o.TotalTokens)),
			Severity: tracing.SeverityInfo,
		},
	}
	if mean, ok := meanLatency(stats.Models); ok {
		out = append(out, tracing.Statistic{
			Label:    "Mean latency",
			Value:    mean,
			Display:  format.Duration(&mean),
			Severity: tracing.SeverityInfo,
		})
	}
	return out
}

func count(label string, n int64, severity tracing.Severity) tracing.Statistic {
	return tracing.Statistic{Label: label, Value: float64(n), Display: format.Count(n), Severity: severity}
}

// meanLatency weights each model's average duration by its request count.
func meanLatency(models []ModelStat) (float64, bool) {
	var (
		durations []float64
		weights   []float64
	)
	for _, m := range models {
		if m.Count <= 0 {
			continue
		}
		durations = append(durations, m.AvgDuration)
		weights = append(weights, float64(m.Count))
	}
	if len(durations) == 0 {
		return 0, false
	}
	return stat.Mean(durations, weights), true
}

func (d *Delegate) TableFields() []tracing.Field[Trace] {
	return []tracing.Field[Trace]{
		{Label: "ID", Key: "trace_id", Width: 36, Format: func(t Trace) string { return t.TraceID }},
		{Label: "Model", Key: "model_id", Width: 24, Format: func(t Trace) string { return t.ModelID }},
		{Label: "Backend", Key: "backend_name", Width: 16, Format: func(t Trace) string { return t.BackendName }},
		{Label: "Requested", Key: "request_time", Width: 19, Format: func(t Trace) string { return format.Date(t.RequestTime.Time) }},
		{Label: "Status", Key: "status", Width: 8, Format: func(t Trace) string { return StatusLabel(t.Status) }},
		{Label: "Duration", Key: "duration", Width: 12, Format: func(t Trace) string { return format.Duration(t.Duration) }},
		{Label: "Tokens", Key: "total_tokens", Width: 10, Format: func(t Trace) string { return format.Tokens(t.TotalTokens) }},
	}
}

func (d *Delegate) DetailFields() []tracing.Field[Trace] {
	return []tracing.Field[Trace]{
		{Label: "Model", Key: "model_id", Format: func(t Trace) string { return t.ModelID }},
		{Label: "Backend", Key: "backend_name", Format: func(t Trace) string { return t.BackendName }},
		{Label: "Prompt tokens", Key: "prompt_tokens", Format: func(t Trace) string { return format.Tokens(t.PromptTokens) }},
		{Label: "Completion tokens", Key: "completion_tokens", Format: func(t Trace) string { return format.Tokens(t.CompletionTokens) }},
		{Label: "Total tokens", Key: "total_tokens", Format: func(t Trace) string { return format.Tokens(t.TotalTokens) }},
		{Label: "Cached tokens", Key: "cached_tokens", Format: func(t Trace) string { return format.Tokens(t.CachedTokens) }},
	}
}

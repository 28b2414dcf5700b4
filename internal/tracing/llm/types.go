package llm

import "github.com/GriffinCanCode/AgentOS/console/internal/tracing"

// Kind is the trace kind served by this package.
const Kind = "llm"

// Trace is one model invocation.
type Trace struct {
	tracing.Trace
	ModelID          string `json:"model_id"`
	BackendName      string `json:"backend_name"`
	PromptTokens     *int64 `json:"prompt_tokens"`
	CompletionTokens *int64 `json:"completion_tokens"`
	TotalTokens      *int64 `json:"total_tokens"`
	CachedTokens     *int64 `json:"cached_tokens"`
}

// Overview holds the headline counters.
type Overview struct {
	TotalTokens     int64 `json:"total_tokens"`
	TotalRequests   int64 `json:"total_requests"`
	PendingRequests int64 `json:"pending_requests"`
	SuccessRequests int64 `json:"success_requests"`
	FailedRequests  int64 `json:"failed_requests"`
}

// DailyStat aggregates one calendar day.
type DailyStat struct {
	Date     string `json:"date"`
	Requests int64  `json:"requests"`
	Tokens   int64  `json:"tokens"`
	Success  int64  `json:"success"`
	Failed   int64  `json:"failed"`
}

// HourlyStat aggregates one hour.
type HourlyStat struct {
	Hour     string `json:"hour"`
	Requests int64  `json:"requests"`
	Tokens   int64  `json:"tokens"`
}

// ModelStat aggregates one model.
type ModelStat struct {
	ModelID     string  `json:"model_id"`
	Count       int64   `json:"count"`
	Tokens      int64   `json:"tokens"`
	AvgDuration float64 `json:"avg_duration"`
}

// BackendStat aggregates one backend.
type BackendStat struct {
	BackendName string  `json:"backend_name"`
	Count       int64   `json:"count"`
	Tokens      int64   `json:"tokens"`
	AvgDuration float64 `json:"avg_duration"`
}

// Statistics is the aggregate returned by the statistics endpoint.
type Statistics struct {
	Overview    Overview      `json:"overview"`
	DailyStats  []DailyStat   `json:"daily_stats"`
	HourlyStats []HourlyStat  `json:"hourly_stats"`
	Models      []ModelStat   `json:"models"`
	Backends    []BackendStat `json:"backends"`
}

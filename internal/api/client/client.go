package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/console/internal/infrastructure/resilience"
)

// RequestIDHeader carries a per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the bearer token for each call. An empty token sends
// no Authorization header.
type TokenSource interface {
	Token() string
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string

	// RateLimit is requests per second; zero disables limiting
	RateLimit float64
	Burst     int

	BreakerThreshold uint32
	BreakerTimeout   time.Duration

	Tokens  TokenSource
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
}

// OptionsFromConfig maps loaded configuration onto client options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		BaseURL:          cfg.API.URL,
		Timeout:          cfg.HTTP.Timeout,
		MaxRetries:       cfg.HTTP.MaxRetries,
		RetryWaitMin:     cfg.HTTP.RetryWaitMin,
		RetryWaitMax:     cfg.HTTP.RetryWaitMax,
		UserAgent:        cfg.HTTP.UserAgent,
		BreakerThreshold: cfg.HTTP.BreakerThreshold,
		BreakerTimeout:   cfg.HTTP.BreakerTimeout,
	}
	if cfg.RateLimit.Enabled {
		opts.RateLimit = float64(cfg.RateLimit.RequestsPerSecond)
		opts.Burst = cfg.RateLimit.Burst
	}
	return opts
}

// Client is a JSON client for the console REST API with rate limiting,
// retries and a circuit breaker. It satisfies tracing.Requester.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	tokens  TokenSource
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

type noToken struct{}

func (noToken) Token() string { return "" }

// New creates a client for opts.BaseURL.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "AgentOS-Console/1.0"
	}
	if opts.Tokens == nil {
		opts.Tokens = noToken{}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryLogger{logger.Sugar()}
	retryClient.ErrorHandler = keepLastResponse

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(opts.RateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	threshold := opts.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	breaker := resilience.New("console-api", resilience.Settings{
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsFailure: isBreakerFailure,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		tokens:  opts.Tokens,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.resty.BaseURL
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Get issues a GET to path and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, resty.MethodGet, path, nil, out)
}

// Post sends body as JSON to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, resty.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limit: %w", method, path, err)
	}
	requestID := uuid.NewString()
	var resp *resty.Response
	status := 0
	err := c.breaker.Execute(func() error {
		req := c.resty.R().
			SetContext(ctx).
			SetHeader(RequestIDHeader, requestID).
			SetError(&errorBody{})
		if token := c.tokens.Token(); token != "" {
			req.SetAuthToken(token)
		}
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}

		timer := monitoring.NewTimer(c.metrics, method, route(path))
		var err error
		resp, err = req.Execute(method, path)
		if resp != nil && resp.RawResponse != nil {
			status = resp.StatusCode()
		}
		timer.Stop(status)

		if err == nil && resp.IsError() {
			err = newAPIError(resp)
		}
		return err
	})

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("request_id", requestID),
	}
	if err != nil {
		c.logger.Debug("api call failed", append(fields, zap.Error(err))...)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("api call", append(fields, zap.Duration("duration", resp.Time()))...)
	return nil
}

// route collapses per-trace path segments for metric labels.
func route(path string) string {
	if i := strings.Index(path, "/detail/"); i >= 0 {
		return path[:i] + "/detail/:id"
	}
	return path
}

// isBreakerFailure counts server faults and transport errors. Client errors
// and caller cancellation say nothing about backend health.
func isBreakerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// keepLastResponse hands the final response to resty once retries are
// exhausted, so its status and error body are still decoded.
func keepLastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }

package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection. Requests are
// labelled by route template to keep trace IDs out of label values.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(method, path, status, duration, respSize)
	}
}

// Timer measures a console API call
type Timer struct {
	start   time.Time
	metrics *Metrics
	method  string
	route   string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, method, route string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		method:  method,
		route:   route,
	}
}

// Stop stops the timer and records the duration against status
func (t *Timer) Stop(status int) {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.RecordAPICall(t.method, t.route, status, time.Since(t.start))
}

/*
Package monitoring provides Prometheus metrics for the trace console.

# Overview

Metrics live on a private registry per Metrics value. The tracing engine
reports through the tracing.MetricsRecorder methods, the API client through
Timer, and the dashboard server through Middleware.

# Usage

	metrics := monitoring.NewMetrics()

	engine, _ := llm.New(tracing.Config{Metrics: metrics})

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "POST", "/tracing/:kind/traces")
	// ... perform call ...
	timer.Stop(200)
*/
package monitoring

// Package llm is the tracing delegate for model invocation traces.
package llm

import "github.com/GriffinCanCode/AgentOS/console/internal/tracing"

// Engine is a tracing engine bound to LLM traces.
type Engine = tracing.Engine[Trace, Statistics]

// New creates an LLM trace engine. cfg.Kind is forced to Kind.
func New(cfg tracing.Config) (*Engine, error) {
	cfg.Kind = Kind
	return tracing.New[Trace, Statistics](cfg, NewDelegate())
}

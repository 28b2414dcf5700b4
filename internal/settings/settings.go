// Package settings reads and writes the console's tracing system setting.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
)

// ErrConsentRequired is returned when content tracing would be enabled
// without the operator accepting the disclosure.
var ErrConsentRequired = errors.New("enabling llm content tracing requires explicit consent")

// Disclosure is shown before content tracing is enabled.
const Disclosure = `Enabling LLM content tracing records every LLM request and response in
full, including user input, generated output and timing metadata. Records
are kept for at least 30 days and may contain personal or confidential
data. If you serve third parties you must disclose this recording in your
user agreement and obtain their consent. The data stays on your server and
its protection is your responsibility.`

// Tracing is the tracing section of the system configuration.
type Tracing struct {
	LLMTracingContent bool `json:"llm_tracing_content"`
}

type systemConfig struct {
	Tracing Tracing `json:"tracing"`
}

// Client reads and updates the setting.
type Client struct {
	api tracing.Requester
}

// New wraps an API requester.
func New(api tracing.Requester) *Client {
	return &Client{api: api}
}

// Fetch returns the current tracing setting.
func (c *Client) Fetch(ctx context.Context) (Tracing, error) {
	var cfg systemConfig
	if err := c.api.Get(ctx, "/system/config", &cfg); err != nil {
		return Tracing{}, fmt.Errorf("fetch system config: %w", err)
	}
	return cfg.Tracing, nil
}

// Save stores t. Turning content tracing on requires consented to be true;
// turning it off never does.
func (c *Client) Save(ctx context.Context, t Tracing, consented bool) error {
	if t.LLMTracingContent && !consented {
		return ErrConsentRequired
	}
	if err := c.api.Post(ctx, "/system/config/tracing", t, nil); err != nil {
		return fmt.Errorf("save tracing config: %w", err)
	}
	return nil
}

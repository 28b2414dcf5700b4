package credentials

import "github.com/GriffinCanCode/AgentOS/console/internal/tracing"

// Chain returns the first non-empty token among its providers.
type Chain []tracing.CredentialProvider

// Token implements tracing.CredentialProvider.
func (c Chain) Token() string {
	for _, p := range c {
		if p == nil {
			continue
		}
		if t := p.Token(); t != "" {
			return t
		}
	}
	return ""
}

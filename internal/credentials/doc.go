// Package credentials stores the console bearer token and obtains it.
//
// The token lives in ~/.config/agentos/credentials.yaml with mode 0600.
// Store, Chain and tracing.StaticToken all satisfy
// tracing.CredentialProvider, so an environment token can take precedence
// over the file:
//
//	tokens := credentials.Chain{tracing.StaticToken(cfg.API.Token), store}
package credentials

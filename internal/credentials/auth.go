package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentOS/console/internal/tracing"
)

var (
	// ErrEmptyPassword is returned before any request is made.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrNoToken means the server accepted the login but issued no token.
	ErrNoToken = errors.New("login response carried no access token")
)

type firstTimeResponse struct {
	IsFirstTime bool `json:"is_first_time"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Auth talks to the console login endpoints.
type Auth struct {
	api tracing.Requester
}

// NewAuth wraps an API requester.
func NewAuth(api tracing.Requester) *Auth {
	return &Auth{api: api}
}

// CheckFirstTime reports whether no password has been set yet. On a first
// login the submitted password becomes the console password.
func (a *Auth) CheckFirstTime(ctx context.Context) (bool, error) {
	var resp firstTimeResponse
	if err := a.api.Get(ctx, "/auth", &resp); err != nil {
		return false, fmt.Errorf("check first login: %w", err)
	}
	return resp.IsFirstTime, nil
}

// Login exchanges password for a bearer token.
func (a *Auth) Login(ctx context.Context, password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	var resp loginResponse
	if err := a.api.Post(ctx, "/auth", loginRequest{Password: password}, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return "", ErrNoToken
	}
	return resp.AccessToken, nil
}

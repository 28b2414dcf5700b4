package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRequester struct {
	mock.Mock
}

func (m *mockRequester) Get(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)
	if fill, ok := args.Get(1).(func(any)); ok && fill != nil {
		fill(out)
	}
	return args.Error(0)
}

func (m *mockRequester) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	if fill, ok := args.Get(1).(func(any)); ok && fill != nil {
		fill(out)
	}
	return args.Error(0)
}

func TestCheckFirstTime(t *testing.T) {
	api := &mockRequester{}
	api.On("Get", mock.Anything, "/auth", mock.Anything).
		Return(nil, func(out any) { out.(*firstTimeResponse).IsFirstTime = true })

	first, err := NewAuth(api).CheckFirstTime(context.Background())

	require.NoError(t, err)
	assert.True(t, first)
	api.AssertExpectations(t)
}

func TestLoginReturnsToken(t *testing.T) {
	api := &mockRequester{}
	api.On("Post", mock.Anything, "/auth", loginRequest{Password: "hunter2"}, mock.Anything).
		Return(nil, func(out any) { out.(*loginResponse).AccessToken = "jwt" })

	token, err := NewAuth(api).Login(context.Background(), "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
	api.AssertExpectations(t)
}

func TestLoginErrors(t *testing.T) {
	t.Run("empty password", func(t *testing.T) {
		api := &mockRequester{}
		_, err := NewAuth(api).Login(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrEmptyPassword)
		api.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected", func(t *testing.T) {
		api := &mockRequester{}
		denied := errors.New("api error 401: wrong password")
		api.On("Post", mock.Anything, "/auth", mock.Anything, mock.Anything).Return(denied, nil)

		_, err := NewAuth(api).Login(context.Background(), "nope")
		assert.ErrorIs(t, err, denied)
	})

	t.Run("no token", func(t *testing.T) {
		api := &mockRequester{}
		api.On("Post", mock.Anything, "/auth", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := NewAuth(api).Login(context.Background(), "pw")
		assert.ErrorIs(t, err, ErrNoToken)
	})
}

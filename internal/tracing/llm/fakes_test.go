package llm

import (
	"context"
	"errors"
)

type nopRequester struct{}

func (nopRequester) Get(context.Context, string, any) error {
	return errors.New("not implemented")
}

func (nopRequester) Post(context.Context, string, any, any) error {
	return errors.New("not implemented")
}

package errs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIs(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ProviderFailure, "embed call failed", cause)
	require.True(t, Is(err, ProviderFailure))
	require.False(t, Is(err, InvalidQuery))
	require.ErrorIs(t, err, cause)
}

func TestNewHasNoCause(t *testing.T) {
	err := New(InvalidArgument, "text is empty")
	require.True(t, Is(err, InvalidArgument))
	var e *Error
	require.True(t, errors.As(err, &e))
	require.Nil(t, e.Err)
}

func TestFromContext(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := FromContext(ctx)
	require.True(t, Is(err, Cancelled))
}

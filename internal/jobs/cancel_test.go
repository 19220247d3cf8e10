package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellationTokenCancelPropagatesToContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	token := NewCancellationToken(cancel)

	require.False(t, token.IsCancelled())
	require.NoError(t, ctx.Err())

	token.Cancel("user requested")

	assert.True(t, token.IsCancelled())
	assert.Equal(t, "user requested", token.Reason())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestCancellationTokenIsIdempotent(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	token := NewCancellationToken(cancel)

	token.Cancel("first")
	token.Cancel("second")

	assert.Equal(t, "first", token.Reason(), "first reason wins")
}

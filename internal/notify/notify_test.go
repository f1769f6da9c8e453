package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	inner := NewRecorder(10, nil)
	r := NewRecorder(2, inner)

	r.Success(ctx, "one")
	r.Error(ctx, "two")
	r.Error(ctx, "three")

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "three", last.Message)
	assert.Equal(t, LevelError, last.Level)

	drained := r.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "two", drained[0].Message)
	assert.Empty(t, r.Drain())

	assert.Len(t, inner.Drain(), 3)
}

func TestRecorder_Subscribe(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(0, nil)

	ch, cancel := r.Subscribe(1)
	r.Success(ctx, "saved")
	r.Error(ctx, "dropped while full")

	n := <-ch
	assert.Equal(t, LevelSuccess, n.Level)
	assert.Equal(t, "saved", n.Message)
	assert.False(t, n.At.IsZero())

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	r.Success(ctx, "after cancel")
	assert.Len(t, r.Drain(), 3)
}

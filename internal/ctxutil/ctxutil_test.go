package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	ctx := WithOp(WithRequestID(context.Background(), "req-1"), "students.create")
	fields := Fields(ctx)
	assert.Len(t, fields, 2)

	id, ok := RequestID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)

	_, ok = Op(context.Background())
	assert.False(t, ok)
}

func TestWithBackendTimeout_ClampsToParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancel2 := WithBackendTimeout(parent, time.Minute)
	defer cancel2()

	dl, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), dl, 50*time.Millisecond)
}

func TestWithTimeout_ZeroMeansCancelOnly(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

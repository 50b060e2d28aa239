package ctxutil

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// private keys so values never collide with other packages
type key int

const (
	keyRequestID key = iota
	keyOpName
)

// WithRequestID / RequestID carry the inbound request id down to backend calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	v := ctx.Value(keyRequestID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// WithOp / Op name the operation for logs.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Fields returns the zap fields stored in ctx.
func Fields(ctx context.Context) []zap.Field {
	var out []zap.Field
	if id, ok := RequestID(ctx); ok {
		out = append(out, zap.String("request_id", id))
	}
	if op, ok := Op(ctx); ok {
		out = append(out, zap.String("op", op))
	}
	return out
}

var DefaultBackendTimeout = 10 * time.Second

// WithTimeout wraps context.WithTimeout; d<=0 means no deadline.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithBackendTimeout applies d (or DefaultBackendTimeout) unless the parent expires sooner.
func WithBackendTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultBackendTimeout
	}
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < d {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, d)
}

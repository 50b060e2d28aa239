package fakebackend

import (
	"context"
	"encoding/json"
)

type bodyKey struct{}

func withBody(ctx context.Context, b json.RawMessage) context.Context {
	return context.WithValue(ctx, bodyKey{}, b)
}

func body(ctx context.Context) json.RawMessage {
	b, _ := ctx.Value(bodyKey{}).(json.RawMessage)
	if b == nil {
		return json.RawMessage("null")
	}
	return b
}

// Package logging provides turn ID tracing for correlating events.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
)

type contextKey string

const turnIDKey contextKey = "turn_id"

var (
	// turnIDPool reuses byte slices for ID generation
	turnIDPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, 8)
		},
	}
)

// NewTurnID generates a unique turn ID (16 hex chars).
func NewTurnID() string {
	buf := turnIDPool.Get().([]byte)
	defer turnIDPool.Put(buf)

	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// WithTurnID adds a turn ID to context.
// If id is empty, generates a new one.
func WithTurnID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewTurnID()
	}
	return context.WithValue(ctx, turnIDKey, id)
}

// TurnIDFromContext extracts the turn ID from context.
// Returns empty string if not present.
func TurnIDFromContext(ctx context.Context) string {
	if v := ctx.Value(turnIDKey); v != nil {
		return v.(string)
	}
	return ""
}

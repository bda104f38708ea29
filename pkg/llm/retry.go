package llm

import (
	"context"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// Retry wraps a provider with bounded fixed-delay retries. After the last
// attempt the final error is returned as-is, not wrapped, so callers see
// exactly what the endpoint said.
type Retry struct {
	inner    Provider
	attempts int
	delay    time.Duration
}

// NewRetry wraps p. Zero attempts or delay select the defaults (3, 2s).
func NewRetry(p Provider, attempts int, delay time.Duration) *Retry {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Retry{inner: p, attempts: attempts, delay: delay}
}

func (r *Retry) Name() string { return r.inner.Name() }

func (r *Retry) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(r.delay):
			}
		}
		resp, err := r.inner.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

var _ Provider = (*Retry)(nil)

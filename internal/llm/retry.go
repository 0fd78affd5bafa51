package llm

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryingCompleter wraps a Completer with per-call timeout and bounded
// exponential-backoff retries. Every network-bound stage goes through one
// of these so retry policy lives in a single place.
type RetryingCompleter struct {
	inner      Completer
	maxRetries int
	timeout    time.Duration
	baseDelay  time.Duration
}

// WithRetries wraps the given completer. maxRetries counts retries after
// the first attempt; timeout bounds each individual call.
func WithRetries(inner Completer, maxRetries int, timeout time.Duration) *RetryingCompleter {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &RetryingCompleter{
		inner:      inner,
		maxRetries: maxRetries,
		timeout:    timeout,
		baseDelay:  500 * time.Millisecond,
	}
}

// IsConfigured reports whether the wrapped provider is usable.
func (r *RetryingCompleter) IsConfigured() bool {
	return r.inner != nil && r.inner.IsConfigured()
}

// Complete issues the call, retrying transient failures with exponential
// backoff. A canceled context stops retrying immediately.
func (r *RetryingCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	backoff := retry.WithMaxRetries(uint64(r.maxRetries), retry.NewExponential(r.baseDelay))

	var out string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		text, callErr := r.inner.Complete(callCtx, prompt, maxTokens)
		if callErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(callErr)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

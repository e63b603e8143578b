package meta

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry defaults for Graph API requests.
const (
	DefaultMaxTries        = 4
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 30 * time.Second
	DefaultMaxElapsedTime  = 2 * time.Minute
)

// withRetry runs fn with exponential backoff. Graph-reported throttling
// errors and 5xx responses are retried for every method, application
// errors are permanent. Transport-level errors with no Graph response
// are retried only when retryTransient is set: reads are idempotent,
// but a mutation may already have been applied by the time the
// connection failed.
func (c *Client) withRetry(ctx context.Context, retryTransient bool, fn func() ([]byte, error)) ([]byte, error) {
	operation := func() ([]byte, error) {
		body, err := fn()
		if err == nil {
			return body, nil
		}

		var ge *GraphError
		if errors.As(err, &ge) {
			if !ge.IsRetryable() {
				return nil, backoff.Permanent(err)
			}
			if ge.IsRateLimited() {
				c.recordThrottled(ctx, "upstream")
			}
			c.recordRetry(ctx, strconv.Itoa(ge.Code))
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}

		// Transport-level error, no Graph response.
		if !retryTransient {
			return nil, backoff.Permanent(err)
		}
		c.recordRetry(ctx, "transport")
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = DefaultInitialInterval
	bo.MaxInterval = DefaultMaxInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(DefaultMaxElapsedTime),
	)
}

func (c *Client) recordRetry(ctx context.Context, errorCode string) {
	if c.metrics != nil {
		c.metrics.RecordAPIRetry(ctx, errorCode)
	}
}

func (c *Client) recordThrottled(ctx context.Context, reason string) {
	if c.metrics != nil {
		c.metrics.RecordAPIThrottled(ctx, reason)
	}
}

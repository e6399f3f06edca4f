package ai

import "context"

// withRetry runs fn with a bounded exponential backoff. Only transient
// provider failures (rate limits, temporary server errors) are retried;
// everything else propagates immediately.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := c.baseDelay
	var err error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.sleep(delay)
			delay *= 2
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
	}
	return err
}

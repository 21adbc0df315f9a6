// Package retry retries operations that fail transiently, with exponential
// backoff between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config defines the retry behavior.
type Config struct {
	// Attempts is the maximum number of calls. Values below 1 mean one call.
	Attempts int

	// InitialBackoff is the wait before the second call. Each later wait
	// doubles, up to MaxBackoff when that is non-zero.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// ShouldRetryFunc reports whether err is worth another attempt. A nil
// ShouldRetryFunc retries every error.
type ShouldRetryFunc func(error) bool

// Do calls fn until it succeeds, returns an error shouldRetry rejects, or
// the attempts run out. A rejected error is returned as is; exhaustion wraps
// the last error. Canceling ctx during a backoff returns ctx.Err().
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	attempts := max(cfg.Attempts, 1)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(Backoff(cfg, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Backoff returns the wait before call number attempt+1, for attempt >= 1.
func Backoff(cfg Config, attempt int) time.Duration {
	backoff := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if cfg.MaxBackoff > 0 && backoff >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return backoff
}

// Package retry provides bounded exponential backoff for transient failures.
// It is used at startup to wait out a PostgreSQL instance that is still
// coming up; the search read path deliberately does not retry (retry policy
// belongs to the caller there).
package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, +/- fraction of the delay
}

// DefaultConfig returns sensible defaults for database connections:
// 5 retries starting at 200ms, doubling, capped at 5s, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// applyJitter spreads the delay by +/- jitterFactor to avoid synchronized
// reconnect storms when several instances restart together.
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// Do executes fn with exponential backoff, returning nil on the first
// success or the last error once retries are exhausted. Permanent errors
// (auth failures, bad input) return immediately without further attempts.
// Context cancellation is respected during wait periods.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err

			if !IsRetryable(err) {
				return err
			}
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(applyJitter(delay, cfg.JitterFactor)):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// DoWithResult executes fn and returns both result and error. Useful for
// constructors like database.NewConnection.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		r, fnErr := fn()
		if fnErr != nil {
			return fnErr
		}
		result = r
		return nil
	})
	return result, err
}

// IsRetryable reports whether an error looks transient (connection trouble,
// timeouts, resource exhaustion) rather than permanent (auth failure, bad
// input). Pattern matching on the message is crude but matches how the pgx
// and net errors present themselves at the boot boundary.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"timeout",
		"timed out",
		"temporary failure",
		"too many connections",
		"the database system is starting up",
		"network is unreachable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

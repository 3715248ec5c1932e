// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package retry runs an operation again while it fails with a retryable error.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Config holds retry parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts, the first one included.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// Multiplier grows the delay after every attempt.
	Multiplier float64

	// Jitter scales each delay by a random factor in [1-Jitter, 1+Jitter].
	Jitter float64
}

// DefaultConfig returns the configuration used for version conflicts on task writes:
// many fast attempts, since a conflict means another writer just made progress.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  16,
		InitialDelay: time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

// Delay returns the wait after the given zero-based attempt.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(c.InitialDelay) * math.Pow(mult, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if c.Jitter > 0 {
		delay *= 1 + (rand.Float64()*2-1)*c.Jitter
	}
	return time.Duration(delay)
}

// Do calls fn until it succeeds, returns an error for which retryable reports
// false, or the attempts are exhausted. The last error is returned.
func Do[T any](ctx context.Context, cfg Config, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			timer := time.NewTimer(cfg.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}

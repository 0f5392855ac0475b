// Package retry runs connection attempts with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config controls the backoff schedule.
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// MaxTotal bounds the whole run, including waits. Zero means no bound.
	MaxTotal time.Duration
}

// DefaultConfig gives up after about a minute.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   10,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		MaxTotal:      time.Minute,
	}
}

// Do calls fn until it succeeds, the attempts run out or ctx ends. Failed
// attempts are logged at warn level under name.
func Do(ctx context.Context, cfg Config, name string, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxTotal > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotal)
		defer cancel()
	}

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return aborted(name, attempt-1, err, lastErr)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn("connection attempt failed", "service", name, "attempt", attempt, "retry_in", delay, "error", lastErr)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return aborted(name, attempt, ctx.Err(), lastErr)
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", name, cfg.MaxAttempts, lastErr)
}

func aborted(name string, attempts int, ctxErr, lastErr error) error {
	if lastErr == nil {
		return fmt.Errorf("%s: retry aborted: %w", name, ctxErr)
	}
	return fmt.Errorf("%s: retry aborted after %d attempts: %w (last error: %v)", name, attempts, ctxErr, lastErr)
}

package nrtm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// BackoffConfig paces reconnect attempts against a flaky NRTM host,
// the same exponential-backoff shape used elsewhere for pacing calls
// against an unreliable upstream, applied here to stream (re)connect
// attempts instead of HTTP requests.
type BackoffConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoffConfig returns a sensible default.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		MaxAttempts:  0, // 0 == retry forever, an NRTM feed is expected to eventually come back
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
	}
}

// ConnectWithBackoff calls connect repeatedly, backing off exponentially
// between failures, until it succeeds, ctx is done, or cfg.MaxAttempts
// attempts have failed (0 means no limit). limiter, if
// non-nil, additionally caps the reconnect rate (useful when many DB
// workers share one upstream NRTM host).
func ConnectWithBackoff(ctx context.Context, limiter *rate.Limiter, cfg BackoffConfig, connect func() (Stream, error)) (Stream, error) {
	delay := cfg.InitialDelay
	for attempt := 1; cfg.MaxAttempts == 0 || attempt <= cfg.MaxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("nrtm: reconnect cancelled: %w", err)
			}
		}
		s, err := connect()
		if err == nil {
			return s, nil
		}
		select {
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("nrtm: reconnect cancelled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("nrtm: exceeded max reconnect attempts")
}

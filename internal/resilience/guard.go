package resilience

import (
	"context"
	"errors"
	"time"
)

// Guard runs calls against a flaky dependency with a per-attempt timeout,
// bounded retries and an optional circuit breaker.
type Guard struct {
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
	Timeout     time.Duration
	// Target labels retry metrics. The breaker target is used when empty.
	Target string
}

func (g Guard) target() string {
	if g.Target != "" {
		return g.Target
	}
	if g.Breaker != nil {
		return g.Breaker.targetLabel()
	}
	return "default"
}

// Do invokes fn until it succeeds, attempts run out, or ctx is done. It
// returns ErrOpenCircuit without calling fn while the breaker is open.
func (g Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if g.Breaker != nil && !g.Breaker.Allow(ctx) {
			if lastErr != nil {
				return errors.Join(ErrOpenCircuit, lastErr)
			}
			return ErrOpenCircuit
		}
		lastErr = g.attempt(ctx, fn)
		if g.Breaker != nil {
			g.Breaker.Report(ctx, lastErr == nil)
		}
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		GuardRetriesTotal.WithLabelValues(g.target()).Inc()
		timer := time.NewTimer(Backoff(g.BaseBackoff, attempt, g.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
	return lastErr
}

func (g Guard) attempt(ctx context.Context, fn func(context.Context) error) error {
	if g.Timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()
	return fn(callCtx)
}

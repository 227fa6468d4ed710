package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/resilience"
)

func TestGuardRetriesUntilSuccess(t *testing.T) {
	resilience.GuardRetriesTotal.Reset()
	calls := 0
	g := resilience.Guard{MaxAttempts: 3, BaseBackoff: time.Millisecond, Target: "retry-test"}
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("broker unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, 2.0, testutil.ToFloat64(resilience.GuardRetriesTotal.WithLabelValues("retry-test")))
}

func TestGuardReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	g := resilience.Guard{MaxAttempts: 2, BaseBackoff: time.Millisecond}
	err := g.Do(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestGuardShortCircuitsWhenOpen(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute).WithTarget("guard-test")
	g := resilience.Guard{Breaker: breaker, MaxAttempts: 1}
	ctx := context.Background()

	require.Error(t, g.Do(ctx, func(context.Context) error { return errors.New("down") }))

	called := false
	err := g.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)
}

func TestGuardAppliesPerAttemptTimeout(t *testing.T) {
	g := resilience.Guard{MaxAttempts: 1, Timeout: 10 * time.Millisecond}
	err := g.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

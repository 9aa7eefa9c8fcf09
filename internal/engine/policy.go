package engine

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy decides how long to wait after an iteration before the next one.
type Policy interface {
	Next(result IterationResult) time.Duration
}

// FixedDelay waits the same interval after every iteration, failed or not.
type FixedDelay time.Duration

func (f FixedDelay) Next(IterationResult) time.Duration {
	return time.Duration(f)
}

// Backoff wraps a base policy and grows its delay for each consecutive
// failed iteration, capped at Max but never below the base delay. A
// successful iteration resets it.
type Backoff struct {
	Base     Policy
	Max      time.Duration
	exp      *backoff.ExponentialBackOff
	failures int
}

func NewBackoff(base Policy, max time.Duration) *Backoff {
	exp := backoff.NewExponentialBackOff()
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = max
	exp.MaxElapsedTime = 0
	return &Backoff{Base: base, Max: max, exp: exp}
}

func (b *Backoff) Next(result IterationResult) time.Duration {
	delay := b.Base.Next(result)
	if !result.Failed() {
		b.failures = 0
		b.exp.Reset()
		return delay
	}
	if b.failures == 0 {
		b.exp.InitialInterval = delay
		b.exp.Reset()
	}
	b.failures++
	next := b.exp.NextBackOff()
	if next == backoff.Stop || next < delay {
		return delay
	}
	return next
}

func waitFor(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

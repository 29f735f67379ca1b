// Package retry implements bounded fixed-delay retries as an explicit state machine.
package retry

import (
	"context"
	"fmt"
	"time"

	"firestige.xyz/wardriver/internal/core"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retrier tracks attempt count against a Policy.
//
//	r := retry.New(policy)
//	for r.Next(ctx) {
//	    if err := try(); err != nil { r.Fail(err); continue }
//	    break
//	}
type Retrier struct {
	policy  Policy
	sleep   SleepFunc
	attempt int
	lastErr error
}

// New creates a Retrier. MaxAttempts < 1 is treated as 1.
func New(policy Policy) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{policy: policy, sleep: Sleep}
}

// WithSleep replaces the sleep function, used by tests.
func (r *Retrier) WithSleep(fn SleepFunc) *Retrier {
	r.sleep = fn
	return r
}

// Next starts the next attempt. Every attempt after the first waits Delay.
// It returns false once MaxAttempts were made or ctx is done.
func (r *Retrier) Next(ctx context.Context) bool {
	if r.attempt >= r.policy.MaxAttempts || ctx.Err() != nil {
		return false
	}
	if r.attempt > 0 {
		if err := r.sleep(ctx, r.policy.Delay); err != nil {
			return false
		}
	}
	r.attempt++
	return true
}

// Fail records the error of the current attempt.
func (r *Retrier) Fail(err error) {
	r.lastErr = err
}

// Attempt returns the 1-based number of the current attempt, 0 before the first.
func (r *Retrier) Attempt() int {
	return r.attempt
}

// Exhausted reports whether no attempts remain.
func (r *Retrier) Exhausted() bool {
	return r.attempt >= r.policy.MaxAttempts
}

// Err returns ErrRetriesExhausted wrapping the last recorded error.
func (r *Retrier) Err() error {
	if r.lastErr == nil {
		return fmt.Errorf("%w after %d attempts", core.ErrRetriesExhausted, r.attempt)
	}
	return fmt.Errorf("%w after %d attempts: %w", core.ErrRetriesExhausted, r.attempt, r.lastErr)
}

// Do runs fn until it succeeds or the policy is exhausted.
func Do(ctx context.Context, policy Policy, fn func(attempt int) error) error {
	return New(policy).Do(ctx, fn)
}

// Do runs fn on r until it succeeds, r is exhausted or ctx is done.
func (r *Retrier) Do(ctx context.Context, fn func(attempt int) error) error {
	for r.Next(ctx) {
		err := fn(r.Attempt())
		if err == nil {
			return nil
		}
		r.Fail(err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return r.Err()
}

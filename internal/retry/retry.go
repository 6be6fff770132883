// Package retry applies explicit retry policies to fallible operations.
//
// A Policy is a list of rules. When an attempt fails, the first rule whose
// Match accepts the error decides whether another attempt is made and how long
// to wait before it. Errors no rule matches are returned immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DelayFunc returns the wait before retry number n (0-based).
type DelayFunc func(n int) time.Duration

func Fixed(d time.Duration) DelayFunc {
	return func(int) time.Duration { return d }
}

// Exponential doubles base on each retry and caps the result at max.
func Exponential(base, max time.Duration) DelayFunc {
	return func(n int) time.Duration {
		if n > 30 {
			return max
		}
		d := base << uint(n)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

type Rule struct {
	Name       string
	Match      func(error) bool
	MaxRetries int
	Delay      DelayFunc
	// Hint may return a server-provided wait (e.g. Retry-After) that overrides Delay.
	Hint func(err error) time.Duration
}

type Policy struct {
	Rules []Rule
	// OnRetry is called before each wait; n is the retry about to happen (1-based).
	OnRetry func(rule string, n int, err error)
}

// ExhaustedError is returned when a rule's retry budget is used up.
type ExhaustedError struct {
	Rule    string
	Retries int
	Err     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry %s: gave up after %d retries: %v", e.Rule, e.Retries, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Exhausted reports whether err came from a used-up rule, returning its name.
func Exhausted(err error) (string, bool) {
	var ex *ExhaustedError
	if errors.As(err, &ex) {
		return ex.Rule, true
	}
	return "", false
}

func (p Policy) match(err error) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Match != nil && r.Match(err) {
			return r, true
		}
	}
	return Rule{}, false
}

// Do runs fn until it succeeds, fails with an error no rule retries, or ctx ends.
// The retry counter is shared by all rules of one call and is never shared between calls.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		rule, ok := p.match(err)
		if !ok {
			return zero, err
		}
		if n >= rule.MaxRetries {
			return zero, &ExhaustedError{Rule: rule.Name, Retries: n, Err: err}
		}
		if p.OnRetry != nil {
			p.OnRetry(rule.Name, n+1, err)
		}
		var wait time.Duration
		if rule.Delay != nil {
			wait = rule.Delay(n)
		}
		if rule.Hint != nil {
			if d := rule.Hint(err); d > 0 {
				wait = d
			}
		}
		if !Sleep(ctx, wait) {
			return zero, ctx.Err()
		}
	}
}

// Sleep waits for d or returns false early if ctx is done.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Package retry runs an action under a fixed attempt budget.
//
// Every flaky browser interaction in the robot (submit clicks, server errors
// after submit, the order-another button) goes through Budget so the attempt
// counting and pacing live in one place. What happens once the budget is
// spent is left to the caller: Result reports whether the budget ran out and
// the caller either returns the error or logs it and carries on.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Budget bounds how many times an action runs.
type Budget struct {
	// Attempts is the total number of runs, including the first. Values
	// below one are treated as one.
	Attempts int
	// Delay returns the pause before the next attempt, given the attempt
	// that just failed and its error. Nil means no pause.
	Delay func(attempt int, err error) time.Duration
	// Notify is called after a failed attempt that will be retried.
	Notify func(attempt int, err error)
}

// Result describes how a budgeted run ended.
type Result struct {
	Attempts  int
	Exhausted bool
	Err       error
}

// Stop wraps err so the budget gives up immediately.
func Stop(err error) error {
	return backoff.Permanent(err)
}

// Constant returns a Delay that always waits d.
func Constant(d time.Duration) func(int, error) time.Duration {
	return func(int, error) time.Duration { return d }
}

// Run calls action until it returns nil, returns a Stop error, the budget is
// spent or ctx is done. Attempts are numbered from one.
func (b Budget) Run(ctx context.Context, action func(ctx context.Context, attempt int) error) Result {
	limit := b.Attempts
	if limit < 1 {
		limit = 1
	}

	var (
		res       Result
		permanent bool
		pacing    = &stepBackOff{}
	)

	op := func() error {
		res.Attempts++
		err := action(ctx, res.Attempts)
		if err == nil {
			return nil
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
			return err
		}
		pacing.next = 0
		if b.Delay != nil {
			pacing.next = b.Delay(res.Attempts, err)
		}
		return err
	}

	notify := func(err error, _ time.Duration) {
		if b.Notify != nil {
			b.Notify(res.Attempts, err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(pacing, uint64(limit-1)), ctx)
	res.Err = backoff.RetryNotify(op, policy, notify)
	res.Exhausted = res.Err != nil && !permanent && ctx.Err() == nil
	return res
}

// stepBackOff hands backoff whatever pause the last failed attempt asked for.
type stepBackOff struct {
	next time.Duration
}

func (s *stepBackOff) NextBackOff() time.Duration { return s.next }

func (s *stepBackOff) Reset() { s.next = 0 }

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/stepflow/internal/persistence"
	"github.com/petrijr/stepflow/pkg/api"
)

// ErrStepTimeout is the synthetic error raised when a do attempt
// exceeds its configured timeout. The retry loop treats it like any
// other attempt failure.
var ErrStepTimeout = errors.New("step attempt timed out")

// stepRunner implements api.Step for one run. It is bound to a fresh
// recorder, the run's event gateway, and the observer; the executor
// constructs one per invocation.
type stepRunner struct {
	runID    string
	recorder *StepRecorder
	events   api.EventHandler
	observer api.Observer
}

var _ api.Step = (*stepRunner)(nil)

func (s *stepRunner) complete(ctx context.Context, rec *api.StepRecord, result any) {
	s.recorder.Complete(rec, result)
	s.observer.OnStepCompleted(ctx, s.runID, *rec, rec.EndedAt.Sub(rec.StartedAt))
}

func (s *stepRunner) fail(ctx context.Context, rec *api.StepRecord, err error) {
	s.recorder.Fail(rec, err)
	s.observer.OnStepCompleted(ctx, s.runID, *rec, rec.EndedAt.Sub(rec.StartedAt))
}

func (s *stepRunner) Do(ctx context.Context, name string, cfg *api.StepConfig, fn api.StepCallback) (any, error) {
	rec := s.recorder.Begin(name, api.KindDo, cfg)
	s.observer.OnStepStart(ctx, s.runID, name, api.KindDo)

	// Resolve the policy before the first attempt so config errors are
	// raised synchronously and never retried.
	var timeout time.Duration
	var retries *api.RetryConfig
	limit := 0
	if cfg != nil {
		if cfg.Timeout != nil {
			var err error
			timeout, err = api.ParseDuration(cfg.Timeout)
			if err == nil && timeout < 0 {
				err = fmt.Errorf("%w: negative timeout %v", api.ErrInvalidDuration, timeout)
			}
			if err != nil {
				s.fail(ctx, rec, err)
				return nil, fmt.Errorf("step %q: %w", name, err)
			}
		}
		if cfg.Retries != nil {
			retries = cfg.Retries
			if retries.Limit > 0 {
				limit = retries.Limit
			}
			if _, err := BackoffDelay(retries, 0); err != nil {
				s.fail(ctx, rec, err)
				return nil, fmt.Errorf("step %q: %w", name, err)
			}
		}
	}

	// Attempts run sequentially from 0 to limit inclusive. Only the
	// terminal outcome reaches the ledger; per-attempt detail goes to
	// the observer.
	var lastErr error
	for attempt := 0; attempt <= limit; attempt++ {
		result, err := s.runAttempt(ctx, timeout, fn)
		s.observer.OnStepAttempt(ctx, s.runID, name, attempt, err)

		if err == nil {
			if serr := persistence.CheckSerializable(result); serr != nil {
				s.fail(ctx, rec, serr)
				return nil, fmt.Errorf("step %q: %w", name, serr)
			}
			s.complete(ctx, rec, result)
			return result, nil
		}
		lastErr = err

		if attempt == limit {
			break
		}

		delay, derr := BackoffDelay(retries, attempt)
		if derr != nil {
			lastErr = derr
			break
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				s.fail(ctx, rec, ctx.Err())
				return nil, fmt.Errorf("step %q: %w", name, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	// The captured error is the most recent attempt's, not the first.
	s.fail(ctx, rec, lastErr)
	return nil, fmt.Errorf("step %q: %w", name, lastErr)
}

// runAttempt invokes fn once, racing it against the per-attempt timeout
// when one is configured.
func (s *stepRunner) runAttempt(ctx context.Context, timeout time.Duration, fn api.StepCallback) (any, error) {
	if timeout <= 0 {
		return callSafe(ctx, fn)
	}

	type outcome struct {
		result any
		err    error
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := callSafe(attemptCtx, fn)
		done <- outcome{result: res, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %v", ErrStepTimeout, timeout)
	}
}

// callSafe converts a panicking callback into an ordinary attempt error.
func callSafe(ctx context.Context, fn api.StepCallback) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step callback panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (s *stepRunner) Sleep(ctx context.Context, name string, d api.Duration) error {
	rec := s.recorder.Begin(name, api.KindSleep, nil)
	s.observer.OnStepStart(ctx, s.runID, name, api.KindSleep)

	dur, err := api.ParseDuration(d)
	if err != nil {
		s.fail(ctx, rec, err)
		return fmt.Errorf("step %q: %w", name, err)
	}

	if err := sleepCtx(ctx, dur); err != nil {
		s.fail(ctx, rec, err)
		return fmt.Errorf("step %q: %w", name, err)
	}

	s.complete(ctx, rec, nil)
	return nil
}

func (s *stepRunner) SleepUntil(ctx context.Context, name string, at time.Time) error {
	rec := s.recorder.Begin(name, api.KindSleepUntil, nil)
	s.observer.OnStepStart(ctx, s.runID, name, api.KindSleepUntil)

	// A deadline in the past sleeps zero, never negative.
	d := time.Until(at)
	if d < 0 {
		d = 0
	}

	if err := sleepCtx(ctx, d); err != nil {
		s.fail(ctx, rec, err)
		return fmt.Errorf("step %q: %w", name, err)
	}

	s.complete(ctx, rec, nil)
	return nil
}

func (s *stepRunner) WaitForEvent(ctx context.Context, name string, opts api.WaitOptions) (any, error) {
	rec := s.recorder.Begin(name, api.KindWaitForEvent, nil)
	s.observer.OnStepStart(ctx, s.runID, name, api.KindWaitForEvent)

	var timeout time.Duration
	if opts.Timeout != nil {
		var err error
		timeout, err = api.ParseDuration(opts.Timeout)
		if err == nil && timeout < 0 {
			err = fmt.Errorf("%w: negative timeout %v", api.ErrInvalidDuration, timeout)
		}
		if err != nil {
			s.fail(ctx, rec, err)
			return nil, fmt.Errorf("step %q: %w", name, err)
		}
	}

	s.recorder.MarkWaiting(rec)

	payload, err := s.events.Wait(ctx, s.runID, name, opts.Type, timeout)
	if err != nil {
		// Gateway rejections are fatal to the step and never retried
		// internally; the workflow may catch and retry manually.
		s.fail(ctx, rec, err)
		return nil, fmt.Errorf("step %q: %w", name, err)
	}

	s.complete(ctx, rec, payload)
	return payload, nil
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

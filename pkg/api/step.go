package api

import (
	"context"
	"time"
)

// StepKind identifies which Step method produced a record.
type StepKind string

const (
	KindDo           StepKind = "do"
	KindSleep        StepKind = "sleep"
	KindSleepUntil   StepKind = "sleepUntil"
	KindWaitForEvent StepKind = "waitForEvent"
)

// StepStatus represents the lifecycle state of a single step record.
//
// The lifecycle is linear: RUNNING → (WAITING →)? (COMPLETED | FAILED).
// WAITING is only reachable from waitForEvent steps. Terminal states are
// never re-entered.
type StepStatus string

const (
	StatusRunning   StepStatus = "RUNNING"
	StatusWaiting   StepStatus = "WAITING"
	StatusCompleted StepStatus = "COMPLETED"
	StatusFailed    StepStatus = "FAILED"
)

// Terminal reports whether s is a final status.
func (s StepStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Backoff selects how the retry delay grows between attempts.
type Backoff string

const (
	// BackoffConstant waits the base delay before every retry.
	BackoffConstant Backoff = "constant"

	// BackoffLinear waits delay * (attempt + 1): the wait grows by one
	// base unit per attempt.
	BackoffLinear Backoff = "linear"

	// BackoffExponential waits delay * 2^attempt.
	BackoffExponential Backoff = "exponential"
)

// RetryConfig controls how a do step is retried when its callback
// returns an error.
//
// Limit counts retries after the initial attempt:
//
//	Limit = 0 => callback runs once
//	Limit = 3 => initial attempt + up to 3 retries
//
// Delay is the base backoff delay; it accepts the same forms as
// ParseDuration. No delay is applied before the first attempt or after
// the final failed one.
type RetryConfig struct {
	Limit   int
	Delay   Duration
	Backoff Backoff
}

// StepConfig is the optional per-step policy for do steps.
//
// Timeout bounds a single attempt, not the whole step: a timed-out
// attempt fails like any other attempt and is retried per Retries.
// A nil Timeout means the callback runs unbounded.
type StepConfig struct {
	Retries *RetryConfig
	Timeout Duration
}

// StepRecord is one entry in a run's step ledger.
//
// Result and Error are mutually exclusive and set at most once, on the
// transition to a terminal status. Error is a plain message rather than
// a structured error so records stay serializable across process
// boundaries.
type StepRecord struct {
	Name   string
	Kind   StepKind
	Status StepStatus

	// Config is present only for do steps that passed one.
	Config *StepConfig

	Result any
	Error  string

	StartedAt time.Time
	EndedAt   time.Time
}

// StepCallback is the unit of work executed by Step.Do.
type StepCallback func(ctx context.Context) (any, error)

// WaitOptions configures Step.WaitForEvent.
type WaitOptions struct {
	// Type is the event type the step waits for.
	Type string

	// Timeout bounds the wait; nil means the engine places no bound
	// beyond what the gateway itself enforces.
	Timeout Duration
}

// Step is the interface handed to a workflow function. Each method
// records its own lifecycle in the run's step ledger.
//
// Steps execute strictly sequentially as the workflow function invokes
// them. Duplicate names are legal and simply produce multiple records.
type Step interface {
	// Do executes fn with the given retry and timeout policy. On
	// exhausted retries the last attempt's error is returned, which
	// aborts the rest of the workflow unless the workflow function
	// catches it.
	Do(ctx context.Context, name string, cfg *StepConfig, fn StepCallback) (any, error)

	// Sleep suspends the workflow for the given duration.
	Sleep(ctx context.Context, name string, d Duration) error

	// SleepUntil suspends the workflow until the given time. A deadline
	// in the past completes immediately.
	SleepUntil(ctx context.Context, name string, at time.Time) error

	// WaitForEvent parks the step until an external event of
	// opts.Type is delivered for this run and step name, and returns
	// the event payload.
	WaitForEvent(ctx context.Context, name string, opts WaitOptions) (any, error)
}

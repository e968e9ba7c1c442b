package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/stepflow/internal/persistence"
	"github.com/petrijr/stepflow/pkg/api"
)

// Config describes how to construct an Executor.
// Zero values select the defaults noted on each field.
type Config struct {
	// Events is the wait-for-event gateway shared by all steps of every
	// run this executor starts. Defaults to api.AutoResolveEvents,
	// which resolves every wait immediately; safe for tests and dry
	// runs, not for production approval-style workflows.
	Events api.EventHandler

	// Observer receives run and step lifecycle callbacks.
	// Defaults to api.NoopObserver.
	Observer api.Observer

	// Archive, when set, receives every finished RunResult.
	Archive persistence.RunStore
}

// Executor drives user workflow functions: it constructs a step
// interface bound to a fresh recorder, invokes the function, and
// packages the outcome whether it succeeds or fails.
//
// An Executor is stateless across runs and safe for concurrent use.
type Executor struct {
	events   api.EventHandler
	observer api.Observer
	archive  persistence.RunStore
}

// New returns an Executor with default configuration.
func New() *Executor {
	return NewWithConfig(Config{})
}

// NewWithConfig returns an Executor using the given configuration.
func NewWithConfig(cfg Config) *Executor {
	events := cfg.Events
	if events == nil {
		events = api.AutoResolveEvents{}
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Executor{
		events:   events,
		observer: obs,
		archive:  cfg.Archive,
	}
}

// RunOptions carries per-run settings for ExecuteWithOptions.
type RunOptions struct {
	// RunID identifies the run, primarily for event routing. When
	// empty, a random UUID is generated.
	RunID string

	// Workflow names the run in logs and the archive.
	Workflow string

	// Env is the opaque host environment (database access, secrets,
	// notification channels). It is made available to workflow code via
	// api.EnvFromContext.
	Env any
}

// Execute runs fn with default per-run options.
func (e *Executor) Execute(ctx context.Context, fn api.WorkflowFunc, input any) (*api.RunResult, error) {
	return e.ExecuteWithOptions(ctx, fn, input, RunOptions{})
}

// ExecuteWithOptions runs fn to completion or failure and always
// returns a populated RunResult: on failure Result is nil, Err carries
// the reason, and Steps still reflects the progress made before the
// failure. The error is returned alongside for conventional handling;
// it is the same value as RunResult.Err.
func (e *Executor) ExecuteWithOptions(ctx context.Context, fn api.WorkflowFunc, input any, opts RunOptions) (*api.RunResult, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	if opts.Env != nil {
		ctx = api.WithEnv(ctx, opts.Env)
	}

	recorder := NewStepRecorder()
	step := &stepRunner{
		runID:    runID,
		recorder: recorder,
		events:   e.events,
		observer: e.observer,
	}

	e.observer.OnRunStart(ctx, runID, opts.Workflow)

	start := time.Now()
	result, err := invoke(ctx, fn, step, input)
	if err == nil {
		if serr := persistence.CheckSerializable(result); serr != nil {
			result = nil
			err = serr
		}
	}

	res := &api.RunResult{
		RunID:    runID,
		Workflow: opts.Workflow,
		Steps:    recorder.Records(),
		Duration: time.Since(start),
	}

	if err != nil {
		res.Err = err
		e.observer.OnRunFailed(ctx, res, err)
	} else {
		res.Result = result
		e.observer.OnRunCompleted(ctx, res)
	}

	if e.archive != nil {
		// An archive failure must not mask the run outcome, but it is
		// surfaced to the observer so a dead archive stays visible.
		if aerr := e.archive.SaveRun(ctx, res); aerr != nil {
			e.observer.OnArchiveError(ctx, runID, aerr)
		}
	}

	return res, err
}

// invoke calls the workflow function, converting a panic into a run
// failure so the step ledger survives.
func invoke(ctx context.Context, fn api.WorkflowFunc, step api.Step, input any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("workflow panicked: %v", r)
		}
	}()
	return fn(ctx, step, input)
}

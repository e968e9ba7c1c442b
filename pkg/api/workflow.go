package api

import (
	"context"
	"time"
)

// WorkflowFunc is a user-supplied workflow: a plain function that drives
// its steps through the given Step interface. The input is the value the
// run was started with; the returned value becomes the run's result.
//
// Host services (database access, secrets, notification channels) are
// injected by the caller via WithEnv and retrieved inside steps with
// EnvFromContext; the engine places no constraints on their shape.
type WorkflowFunc func(ctx context.Context, step Step, input any) (any, error)

// RunResult packages the outcome of one executor invocation. It is
// always produced, success or failure: Steps reflects whatever progress
// was made before a failure, which is how partial progress stays
// observable even when the run as a whole errors.
type RunResult struct {
	RunID    string
	Workflow string

	// Result is the workflow function's return value. It is nil when
	// the run failed.
	Result any

	// Err is the error that ended the run, nil on success. Callers that
	// only check Result for nil keep working; Err preserves the reason.
	Err error

	Steps    []StepRecord
	Duration time.Duration
}

// Failed reports whether the run ended with an error.
func (r *RunResult) Failed() bool {
	return r != nil && r.Err != nil
}

type envKey struct{}

// WithEnv attaches the host environment object to the context. The
// executor calls this before invoking the workflow function.
func WithEnv(ctx context.Context, env any) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFromContext returns the host environment attached with WithEnv,
// or nil when none was provided.
func EnvFromContext(ctx context.Context) any {
	return ctx.Value(envKey{})
}

package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the executor for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay workflow execution.
type Observer interface {
	// OnRunStart is called once per executor invocation, before the
	// workflow function runs.
	OnRunStart(ctx context.Context, runID, workflow string)

	// OnRunCompleted is called when the workflow function returns
	// without error.
	OnRunCompleted(ctx context.Context, result *RunResult)

	// OnRunFailed is called when the run ends with an error.
	OnRunFailed(ctx context.Context, result *RunResult, err error)

	// OnStepStart is called when a step method begins, before the
	// first attempt.
	OnStepStart(ctx context.Context, runID, stepName string, kind StepKind)

	// OnStepAttempt is called after each do attempt, including retries.
	// attempt is 0-indexed; err is nil for the successful attempt.
	// The step ledger only keeps terminal state, so this hook is the
	// place to observe per-attempt detail.
	OnStepAttempt(ctx context.Context, runID, stepName string, attempt int, err error)

	// OnStepCompleted is called once per step with its terminal record,
	// for both successes and failures.
	OnStepCompleted(ctx context.Context, runID string, record StepRecord, duration time.Duration)

	// OnArchiveError is called when saving a finished run to the
	// configured archive fails. The run outcome is unaffected; this is
	// the only signal that the archive is losing history.
	OnArchiveError(ctx context.Context, runID string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, runID, workflow string)           {}
func (NoopObserver) OnRunCompleted(ctx context.Context, result *RunResult)            {}
func (NoopObserver) OnRunFailed(ctx context.Context, result *RunResult, err error)    {}
func (NoopObserver) OnStepStart(ctx context.Context, runID, name string, k StepKind)  {}
func (NoopObserver) OnStepAttempt(ctx context.Context, runID, name string, attempt int, err error) {
}
func (NoopObserver) OnStepCompleted(ctx context.Context, runID string, rec StepRecord, d time.Duration) {
}
func (NoopObserver) OnArchiveError(ctx context.Context, runID string, err error) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, runID, workflow string) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, runID, workflow)
	}
}

func (c *CompositeObserver) OnRunCompleted(ctx context.Context, result *RunResult) {
	for _, o := range c.observers {
		o.OnRunCompleted(ctx, result)
	}
}

func (c *CompositeObserver) OnRunFailed(ctx context.Context, result *RunResult, err error) {
	for _, o := range c.observers {
		o.OnRunFailed(ctx, result, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, runID, name string, k StepKind) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, runID, name, k)
	}
}

func (c *CompositeObserver) OnStepAttempt(ctx context.Context, runID, name string, attempt int, err error) {
	for _, o := range c.observers {
		o.OnStepAttempt(ctx, runID, name, attempt, err)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, runID string, rec StepRecord, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, runID, rec, d)
	}
}

func (c *CompositeObserver) OnArchiveError(ctx context.Context, runID string, err error) {
	for _, o := range c.observers {
		o.OnArchiveError(ctx, runID, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run / step lifecycle
// events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, runID, workflow string) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("workflow", workflow),
		slog.String("run_id", runID),
	)
}

func (o *LoggingObserver) OnRunCompleted(ctx context.Context, result *RunResult) {
	o.Logger.InfoContext(ctx, "run_completed",
		slog.String("workflow", result.Workflow),
		slog.String("run_id", result.RunID),
		slog.Duration("duration", result.Duration),
		slog.Int("steps", len(result.Steps)),
	)
}

func (o *LoggingObserver) OnRunFailed(ctx context.Context, result *RunResult, err error) {
	o.Logger.ErrorContext(ctx, "run_failed",
		slog.String("workflow", result.Workflow),
		slog.String("run_id", result.RunID),
		slog.Duration("duration", result.Duration),
		slog.Int("steps", len(result.Steps)),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, runID, name string, k StepKind) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("run_id", runID),
		slog.String("step", name),
		slog.String("kind", string(k)),
	)
}

func (o *LoggingObserver) OnStepAttempt(ctx context.Context, runID, name string, attempt int, err error) {
	if err == nil {
		return
	}
	o.Logger.WarnContext(ctx, "step_attempt_failed",
		slog.String("run_id", runID),
		slog.String("step", name),
		slog.Int("attempt", attempt),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, runID string, rec StepRecord, d time.Duration) {
	level := slog.LevelDebug
	if rec.Status == StatusFailed {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("run_id", runID),
		slog.String("step", rec.Name),
		slog.String("kind", string(rec.Kind)),
		slog.String("status", string(rec.Status)),
		slog.Duration("duration", d),
		slog.String("error", rec.Error),
	)
}

func (o *LoggingObserver) OnArchiveError(ctx context.Context, runID string, err error) {
	o.Logger.WarnContext(ctx, "archive_save_failed",
		slog.String("run_id", runID),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	runsStarted       atomic.Int64
	runsCompleted     atomic.Int64
	runsFailed        atomic.Int64
	stepsCompleted    atomic.Int64
	stepRetries       atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RunsStarted   int64
	RunsCompleted int64
	RunsFailed    int64
	ActiveRuns    int64

	StepsCompleted  int64
	StepRetries     int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, runID, workflow string) {
	m.runsStarted.Add(1)
}

func (m *BasicMetrics) OnRunCompleted(ctx context.Context, result *RunResult) {
	m.runsCompleted.Add(1)
}

func (m *BasicMetrics) OnRunFailed(ctx context.Context, result *RunResult, err error) {
	m.runsFailed.Add(1)
}

func (m *BasicMetrics) OnStepAttempt(ctx context.Context, runID, name string, attempt int, err error) {
	if attempt > 0 {
		m.stepRetries.Add(1)
	}
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, runID string, rec StepRecord, d time.Duration) {
	// Only count successful steps for the average duration.
	if rec.Status == StatusCompleted {
		m.stepsCompleted.Add(1)
		m.totalStepDuration.Add(d.Nanoseconds())
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.runsStarted.Load()
	completed := m.runsCompleted.Load()
	failed := m.runsFailed.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		RunsStarted:     started,
		RunsCompleted:   completed,
		RunsFailed:      failed,
		ActiveRuns:      started - completed - failed,
		StepsCompleted:  steps,
		StepRetries:     m.stepRetries.Load(),
		AvgStepDuration: avg,
	}
}

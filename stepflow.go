package stepflow

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/stepflow/internal/engine"
	"github.com/petrijr/stepflow/internal/persistence"
	"github.com/petrijr/stepflow/pkg/api"
	"github.com/petrijr/stepflow/pkg/event"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Step                 = api.Step
	StepCallback         = api.StepCallback
	StepRecord           = api.StepRecord
	StepKind             = api.StepKind
	StepStatus           = api.StepStatus
	StepConfig           = api.StepConfig
	RetryConfig          = api.RetryConfig
	Backoff              = api.Backoff
	Duration             = api.Duration
	WaitOptions          = api.WaitOptions
	WorkflowFunc         = api.WorkflowFunc
	RunResult            = api.RunResult
	EventHandler         = api.EventHandler
	AutoResolveEvents    = api.AutoResolveEvents
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	Executor             = engine.Executor
	Config               = engine.Config
	RunOptions           = engine.RunOptions
	RunStore             = persistence.RunStore
	RunFilter            = persistence.RunFilter
	Outcome              = persistence.Outcome
)

// Re-export step kinds and statuses for convenience.

const (
	KindDo           = api.KindDo
	KindSleep        = api.KindSleep
	KindSleepUntil   = api.KindSleepUntil
	KindWaitForEvent = api.KindWaitForEvent

	StatusRunning   = api.StatusRunning
	StatusWaiting   = api.StatusWaiting
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed

	BackoffConstant    = api.BackoffConstant
	BackoffLinear      = api.BackoffLinear
	BackoffExponential = api.BackoffExponential

	OutcomeAny       = persistence.OutcomeAny
	OutcomeCompleted = persistence.OutcomeCompleted
	OutcomeFailed    = persistence.OutcomeFailed
)

// Re-export sentinel errors.

var (
	ErrInvalidDuration = api.ErrInvalidDuration
	ErrInvalidBackoff  = engine.ErrInvalidBackoff
	ErrStepTimeout     = engine.ErrStepTimeout
	ErrEventTimeout    = api.ErrEventTimeout
	ErrNotSerializable = persistence.ErrNotSerializable
	ErrRunNotFound     = persistence.ErrRunNotFound
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// ParseDuration converts a Duration value (raw milliseconds, a native
// time.Duration, or a phrase like "5 seconds") into a time.Duration.
func ParseDuration(d Duration) (time.Duration, error) {
	return api.ParseDuration(d)
}

// WithEnv attaches an opaque host environment to the context; workflow
// code retrieves it with EnvFromContext.
func WithEnv(ctx context.Context, env any) context.Context {
	return api.WithEnv(ctx, env)
}

// EnvFromContext returns the host environment attached with WithEnv.
func EnvFromContext(ctx context.Context) any {
	return api.EnvFromContext(ctx)
}

// Executor constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// New returns an Executor with default configuration: auto-resolving
// event gateway, no observer, no archive.
func New() *Executor {
	return engine.New()
}

// NewWithConfig returns an Executor using the given configuration.
func NewWithConfig(cfg Config) *Executor {
	return engine.NewWithConfig(cfg)
}

// NewWithObserver returns a default Executor with the given Observer.
func NewWithObserver(obs Observer) *Executor {
	return engine.NewWithConfig(Config{Observer: obs})
}

// Event gateway constructors.

// NewEventHub returns an in-process event gateway that routes events
// between goroutines of one process.
func NewEventHub() *event.Hub {
	return event.NewHub()
}

// NewRedisEventHub returns an event gateway backed by Redis lists, for
// delivering events across processes.
func NewRedisEventHub(client *redis.Client, prefix string) *event.RedisHub {
	return event.NewRedisHub(client, prefix)
}

// Run archive constructors.

// NewMemoryArchive returns a RunStore that keeps finished runs in
// memory. Best for tests.
func NewMemoryArchive() RunStore {
	return persistence.NewInMemoryStore()
}

// NewSQLiteArchive returns a RunStore that persists finished runs in a
// SQLite database. The caller imports the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
func NewSQLiteArchive(db *sql.DB) (RunStore, error) {
	return persistence.NewSQLiteRunStore(db)
}

// NewRedisArchive returns a RunStore that persists finished runs in
// Redis.
func NewRedisArchive(client *redis.Client, prefix string) RunStore {
	return persistence.NewRedisRunStore(client, prefix)
}

// Convenience helpers.

// Execute runs fn on a fresh default Executor. Handy for tests and dry
// runs; production callers usually construct one Executor and reuse it.
func Execute(ctx context.Context, fn WorkflowFunc, input any) (*RunResult, error) {
	return New().Execute(ctx, fn, input)
}

// SendEvent delivers an event through the given gateway to the step
// waiting on (runID, stepName, eventType).
func SendEvent(ctx context.Context, h EventHandler, runID, stepName, eventType string, data any) error {
	return h.SendEvent(ctx, runID, stepName, eventType, data)
}

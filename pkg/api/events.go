package api

import (
	"context"
	"errors"
	"time"
)

// ErrEventTimeout is returned by gateway implementations when a wait's
// timeout elapses before a matching event is delivered.
var ErrEventTimeout = errors.New("timed out waiting for event")

// EventHandler is the wait-for-event gateway: the pluggable boundary
// that lets an external actor unblock a suspended step.
//
// One handler is shared across all steps of a run, and implementations
// must be safe for concurrent use across simultaneously executing runs;
// events are routed by (runID, stepName, eventType). The engine calls
// Wait; some other part of the system (a webhook handler, a UI action)
// is expected to call SendEvent.
type EventHandler interface {
	// Wait blocks until an event of the given type arrives for
	// (runID, stepName), or the timeout elapses (timeout 0 means no
	// engine-side bound; a negative timeout is rejected), or ctx is
	// cancelled. It returns the event payload.
	Wait(ctx context.Context, runID, stepName, eventType string, timeout time.Duration) (any, error)

	// SendEvent delivers a payload to the step waiting on
	// (runID, stepName, eventType).
	SendEvent(ctx context.Context, runID, stepName, eventType string, data any) error
}

// AutoResolveEvents is an EventHandler that resolves every wait
// immediately with a nil payload and discards sent events.
//
// It is the executor's default, useful for tests and dry runs, and
// unsafe for production approval-style workflows.
type AutoResolveEvents struct{}

var _ EventHandler = AutoResolveEvents{}

func (AutoResolveEvents) Wait(ctx context.Context, runID, stepName, eventType string, timeout time.Duration) (any, error) {
	return nil, nil
}

func (AutoResolveEvents) SendEvent(ctx context.Context, runID, stepName, eventType string, data any) error {
	return nil
}

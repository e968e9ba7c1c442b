// Package event provides wait-for-event gateway implementations for the
// stepflow engine: an in-process Hub for single-process deployments and
// tests, and a Redis-backed hub for delivering events across processes.
//
// A gateway routes events by (runID, stepName, eventType). The engine
// calls Wait while executing a waitForEvent step; webhook handlers, UI
// actions, or other services call SendEvent to unblock it.
package event

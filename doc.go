// Package stepflow provides a small, embeddable durable-execution
// engine for Go: it runs a user-supplied workflow function as a
// sequence of named, independently-retryable steps, records each step's
// outcome in a replayable ledger, and supports long-running suspension
// (timed sleep and external-event waiting) without losing progress.
//
// # Core Concepts
//
// The stepflow programming model is intentionally small:
//
//  1. Executor
//  2. Step
//  3. Step ledger (StepRecord)
//  4. Event gateway (EventHandler)
//  5. Run archive (RunStore)
//
// # Executor
//
// The Executor drives one workflow function to completion or failure.
// It builds a fresh step ledger per run, invokes the function, and
// always returns a RunResult: on failure the result value is nil but
// the ledger still reflects every step that ran before things went
// wrong, so partial progress is never lost.
//
//	exec := stepflow.New()
//	res, err := exec.Execute(ctx, orderWorkflow, order)
//
// # Step
//
// The workflow function receives a Step value and drives its work
// through it:
//
//	func orderWorkflow(ctx context.Context, step stepflow.Step, input any) (any, error) {
//	    charge, err := step.Do(ctx, "charge", &stepflow.StepConfig{
//	        Retries: stepflow.Retry(3).WithExponentialBackoff("1 second").Config(),
//	        Timeout: "30 seconds",
//	    }, func(ctx context.Context) (any, error) {
//	        return chargeCard(ctx, input)
//	    })
//	    if err != nil {
//	        return nil, err
//	    }
//	    if err := step.Sleep(ctx, "settle", "5 seconds"); err != nil {
//	        return nil, err
//	    }
//	    approval, err := step.WaitForEvent(ctx, "approval", stepflow.WaitOptions{Type: "approved"})
//	    if err != nil {
//	        return nil, err
//	    }
//	    _ = approval
//	    return charge, nil
//	}
//
// Steps execute strictly sequentially as the function invokes them.
// Durations are flexible: raw numbers are milliseconds, strings use a
// strict "<n> <unit>" grammar ("5 seconds", "1 minute"), and native
// time.Duration values pass through unchanged.
//
// # Event gateway
//
// waitForEvent steps suspend until an external actor delivers an event
// for the same run ID, step name, and event type. The default gateway
// auto-resolves immediately (useful for tests); NewEventHub provides an
// in-process gateway and NewRedisEventHub a cross-process one:
//
//	hub := stepflow.NewEventHub()
//	exec := stepflow.NewWithConfig(stepflow.Config{Events: hub})
//	// elsewhere, e.g. a webhook handler:
//	_ = hub.SendEvent(ctx, runID, "approval", "approved", payload)
//
// # Run archive
//
// An optional RunStore archives every finished RunResult, keeping past
// step ledgers inspectable. In-memory, SQLite and Redis archives are
// provided. Cross-process resumption of a suspended run is out of
// scope; persistence of in-flight state belongs to the host platform.
package stepflow

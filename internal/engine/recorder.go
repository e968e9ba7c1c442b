package engine

import (
	"sync"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
)

// StepRecorder is the append-only step ledger for one run. It is the
// sole source of truth for what happened: each step method appends one
// record and updates it in place as the step moves through its
// lifecycle.
//
// A recorder is owned by exactly one executor invocation. The mutex
// exists because workflow authors may fan out step calls across
// goroutines; the recorder itself imposes no ordering beyond append
// order.
type StepRecorder struct {
	mu      sync.Mutex
	records []*api.StepRecord
}

// NewStepRecorder creates an empty recorder.
func NewStepRecorder() *StepRecorder {
	return &StepRecorder{}
}

// Begin appends a new record in the RUNNING state and returns it.
// cfg is stored only by do steps; other kinds pass nil.
func (r *StepRecorder) Begin(name string, kind api.StepKind, cfg *api.StepConfig) *api.StepRecord {
	rec := &api.StepRecord{
		Name:      name,
		Kind:      kind,
		Status:    api.StatusRunning,
		Config:    cfg,
		StartedAt: time.Now(),
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	return rec
}

// MarkWaiting moves a running record to WAITING. Only waitForEvent
// steps reach this state.
func (r *StepRecorder) MarkWaiting(rec *api.StepRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Status == api.StatusRunning {
		rec.Status = api.StatusWaiting
	}
}

// Complete moves a record to COMPLETED with the given result.
// Terminal records are never re-entered; a second transition is a no-op.
func (r *StepRecorder) Complete(rec *api.StepRecord, result any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Status.Terminal() {
		return
	}
	rec.Status = api.StatusCompleted
	rec.Result = result
	rec.EndedAt = time.Now()
}

// Fail moves a record to FAILED, capturing the error message.
func (r *StepRecorder) Fail(rec *api.StepRecord, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Status.Terminal() {
		return
	}
	rec.Status = api.StatusFailed
	if err != nil {
		rec.Error = err.Error()
	}
	rec.EndedAt = time.Now()
}

// Records returns a snapshot of the ledger in append order.
func (r *StepRecorder) Records() []api.StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]api.StepRecord, len(r.records))
	for i, rec := range r.records {
		out[i] = *rec
	}
	return out
}

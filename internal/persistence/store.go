package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/stepflow/pkg/api"
)

// ErrRunNotFound is returned when a run result is not found in a store.
var ErrRunNotFound = errors.New("run not found")

// Outcome filters runs by how they ended.
type Outcome string

const (
	OutcomeAny       Outcome = ""
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// RunFilter selects runs from a store. Zero values mean "no filter"
// for that field.
type RunFilter struct {
	Workflow string
	Outcome  Outcome
}

// RunStore archives finished run results so the step ledger of past
// runs stays inspectable. It never stores in-flight state; a run is
// written exactly once, after the executor finishes it.
type RunStore interface {
	SaveRun(ctx context.Context, res *api.RunResult) error
	GetRun(ctx context.Context, runID string) (*api.RunResult, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*api.RunResult, error)
}

func matchesFilter(res *api.RunResult, filter RunFilter) bool {
	if filter.Workflow != "" && res.Workflow != filter.Workflow {
		return false
	}
	switch filter.Outcome {
	case OutcomeCompleted:
		return res.Err == nil
	case OutcomeFailed:
		return res.Err != nil
	default:
		return true
	}
}

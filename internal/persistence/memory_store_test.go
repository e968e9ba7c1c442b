package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/petrijr/stepflow/pkg/api"
)

func TestInMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	res := &api.RunResult{RunID: "r1", Workflow: "wf", Result: "done"}
	if err := s.SaveRun(ctx, res); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Result != "done" {
		t.Fatalf("unexpected result: %v", got.Result)
	}

	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestInMemoryStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	runs := []*api.RunResult{
		{RunID: "a", Workflow: "orders", Result: "ok"},
		{RunID: "b", Workflow: "orders", Err: errors.New("boom")},
		{RunID: "c", Workflow: "billing", Result: "ok"},
	}
	for _, r := range runs {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	all, err := s.ListRuns(ctx, RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	// Insertion order is preserved.
	if all[0].RunID != "a" || all[2].RunID != "c" {
		t.Fatalf("unexpected order: %v, %v, %v", all[0].RunID, all[1].RunID, all[2].RunID)
	}

	orders, err := s.ListRuns(ctx, RunFilter{Workflow: "orders"})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 order runs, got %d", len(orders))
	}

	failed, err := s.ListRuns(ctx, RunFilter{Outcome: OutcomeFailed})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(failed) != 1 || failed[0].RunID != "b" {
		t.Fatalf("unexpected failed runs: %+v", failed)
	}

	completedOrders, err := s.ListRuns(ctx, RunFilter{Workflow: "orders", Outcome: OutcomeCompleted})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(completedOrders) != 1 || completedOrders[0].RunID != "a" {
		t.Fatalf("unexpected completed order runs: %+v", completedOrders)
	}
}

func TestInMemoryStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	if err := s.SaveRun(ctx, &api.RunResult{RunID: "r1", Result: "v1"}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := s.SaveRun(ctx, &api.RunResult{RunID: "r1", Result: "v2"}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Result != "v2" {
		t.Fatalf("expected overwrite to win, got %v", got.Result)
	}

	all, _ := s.ListRuns(ctx, RunFilter{})
	if len(all) != 1 {
		t.Fatalf("overwrite must not duplicate entries, got %d", len(all))
	}
}

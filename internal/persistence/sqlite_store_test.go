package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/stepflow/pkg/api"
)

func newSQLiteStore(t *testing.T) *SQLiteRunStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQLiteRunStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore failed: %v", err)
	}
	return s
}

func TestSQLiteRunStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	res := &api.RunResult{
		RunID:    "r1",
		Workflow: "orders",
		Result:   map[string]any{"total": 42},
		Steps: []api.StepRecord{
			{Name: "charge", Kind: api.KindDo, Status: api.StatusCompleted, Result: "txn-1"},
			{Name: "notify", Kind: api.KindDo, Status: api.StatusCompleted},
		},
		Duration: 1500 * time.Millisecond,
	}
	if err := s.SaveRun(ctx, res); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Workflow != "orders" || got.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected run: %+v", got)
	}
	m, ok := got.Result.(map[string]any)
	if !ok || m["total"] != 42 {
		t.Fatalf("result lost in transit: %v", got.Result)
	}
	if len(got.Steps) != 2 || got.Steps[0].Name != "charge" || got.Steps[0].Result != "txn-1" {
		t.Fatalf("ledger lost in transit: %+v", got.Steps)
	}
	if got.Err != nil {
		t.Fatalf("expected nil Err, got %v", got.Err)
	}
}

func TestSQLiteRunStore_FailedRunKeepsErrorAndLedger(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	res := &api.RunResult{
		RunID:    "r2",
		Workflow: "orders",
		Err:      errors.New("card declined"),
		Steps: []api.StepRecord{
			{Name: "charge", Kind: api.KindDo, Status: api.StatusFailed, Error: "card declined"},
		},
	}
	if err := s.SaveRun(ctx, res); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, "r2")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Err == nil || got.Err.Error() != "card declined" {
		t.Fatalf("error lost in transit: %v", got.Err)
	}
	if got.Result != nil {
		t.Fatalf("failed run should have nil result, got %v", got.Result)
	}
	if len(got.Steps) != 1 || got.Steps[0].Status != api.StatusFailed {
		t.Fatalf("ledger lost in transit: %+v", got.Steps)
	}
}

func TestSQLiteRunStore_GetMissing(t *testing.T) {
	s := newSQLiteStore(t)

	if _, err := s.GetRun(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteRunStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

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

	failedOrders, err := s.ListRuns(ctx, RunFilter{Workflow: "orders", Outcome: OutcomeFailed})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(failedOrders) != 1 || failedOrders[0].RunID != "b" {
		t.Fatalf("unexpected failed order runs: %+v", failedOrders)
	}

	completed, err := s.ListRuns(ctx, RunFilter{Outcome: OutcomeCompleted})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed runs, got %d", len(completed))
	}
}

func TestSQLiteRunStore_SaveIsIdempotentPerRunID(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if err := s.SaveRun(ctx, &api.RunResult{RunID: "r1", Workflow: "wf", Result: "v1"}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := s.SaveRun(ctx, &api.RunResult{RunID: "r1", Workflow: "wf", Result: "v2"}); err != nil {
		t.Fatalf("second SaveRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Result != "v2" {
		t.Fatalf("expected last save to win, got %v", got.Result)
	}
}

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
)

// SQLiteRunStore is a RunStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteRunStore struct {
	db *sql.DB
}

// Ensure SQLiteRunStore implements RunStore.
var _ RunStore = (*SQLiteRunStore)(nil)

// NewSQLiteRunStore initializes the required schema in the given
// database and returns a new SQLiteRunStore.
func NewSQLiteRunStore(db *sql.DB) (*SQLiteRunStore, error) {
	s := &SQLiteRunStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteRunStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			result BLOB,
			steps BLOB,
			error TEXT,
			duration_ns INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteRunStore) SaveRun(ctx context.Context, res *api.RunResult) error {
	result, err := EncodeValue(res.Result)
	if err != nil {
		return err
	}

	steps, err := EncodeValue(res.Steps)
	if err != nil {
		return err
	}

	errStr := ""
	if res.Err != nil {
		errStr = res.Err.Error()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, workflow, result, steps, error, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			workflow = excluded.workflow,
			result = excluded.result,
			steps = excluded.steps,
			error = excluded.error,
			duration_ns = excluded.duration_ns`,
		res.RunID,
		res.Workflow,
		result,
		steps,
		errStr,
		res.Duration.Nanoseconds(),
	)
	return err
}

func (s *SQLiteRunStore) GetRun(ctx context.Context, runID string) (*api.RunResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, workflow, result, steps, error, duration_ns
		FROM runs
		WHERE run_id = ?`,
		runID,
	)

	res, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *SQLiteRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]*api.RunResult, error) {
	query := `
		SELECT run_id, workflow, result, steps, error, duration_ns
		FROM runs`
	var args []any
	var clauses []string

	if filter.Workflow != "" {
		clauses = append(clauses, "workflow = ?")
		args = append(args, filter.Workflow)
	}
	switch filter.Outcome {
	case OutcomeCompleted:
		clauses = append(clauses, "error = ''")
	case OutcomeFailed:
		clauses = append(clauses, "error != ''")
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*api.RunResult
	for rows.Next() {
		res, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*api.RunResult, error) {
	var res api.RunResult
	var result, steps []byte
	var errStr sql.NullString
	var durationNs int64

	if err := row.Scan(&res.RunID, &res.Workflow, &result, &steps, &errStr, &durationNs); err != nil {
		return nil, err
	}

	resultVal, err := DecodeValue[any](result)
	if err != nil {
		return nil, err
	}
	res.Result = resultVal

	stepsVal, err := DecodeValue[[]api.StepRecord](steps)
	if err != nil {
		return nil, err
	}
	res.Steps = stepsVal

	if errStr.Valid && errStr.String != "" {
		res.Err = errors.New(errStr.String)
	}
	res.Duration = time.Duration(durationNs)

	return &res, nil
}

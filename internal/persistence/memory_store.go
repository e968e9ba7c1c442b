package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/stepflow/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe RunStore backed by a map.
// It keeps insertion order so ListRuns is deterministic.
type InMemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*api.RunResult
	order []string
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		runs: make(map[string]*api.RunResult),
	}
}

// Ensure InMemoryStore implements RunStore.
var _ RunStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveRun(ctx context.Context, res *api.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[res.RunID]; !ok {
		s.order = append(s.order, res.RunID)
	}
	s.runs[res.RunID] = res
	return nil
}

func (s *InMemoryStore) GetRun(ctx context.Context, runID string) (*api.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return res, nil
}

func (s *InMemoryStore) ListRuns(ctx context.Context, filter RunFilter) ([]*api.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.RunResult
	for _, id := range s.order {
		res := s.runs[id]
		if matchesFilter(res, filter) {
			result = append(result, res)
		}
	}
	return result, nil
}

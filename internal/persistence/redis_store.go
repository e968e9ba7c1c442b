package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/stepflow/pkg/api"
)

// RedisRunStore is a RunStore backed by Redis. It uses a simple key
// structure:
//
//	<prefix>run:<id>           => gob-encoded redisRunPayload
//	<prefix>idx:all            => SET of all run IDs
//	<prefix>idx:wf:<workflow>  => SET of run IDs for a given workflow
//	<prefix>idx:failed         => SET of run IDs that ended in failure
//
// The indexes are updated on every save; ListRuns uses set operations
// for filtering.
type RedisRunStore struct {
	client *redis.Client
	prefix string
}

var _ RunStore = (*RedisRunStore)(nil)

type redisRunPayload struct {
	RunID      string
	Workflow   string
	Result     []byte
	Steps      []byte
	Error      string
	DurationNs int64
}

// NewRedisRunStore creates a RedisRunStore.
// prefix is optional but recommended (e.g. "stepflow:").
func NewRedisRunStore(client *redis.Client, prefix string) *RedisRunStore {
	if prefix == "" {
		prefix = "stepflow:"
	}
	return &RedisRunStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisRunStore) keyRun(id string) string {
	return s.prefix + "run:" + id
}

func (s *RedisRunStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisRunStore) keyWorkflow(name string) string {
	return s.prefix + "idx:wf:" + name
}

func (s *RedisRunStore) keyFailed() string {
	return s.prefix + "idx:failed"
}

func encodeRunPayload(res *api.RunResult) ([]byte, error) {
	resultBytes, err := EncodeValue(res.Result)
	if err != nil {
		return nil, err
	}
	stepBytes, err := EncodeValue(res.Steps)
	if err != nil {
		return nil, err
	}

	errStr := ""
	if res.Err != nil {
		errStr = res.Err.Error()
	}

	payload := redisRunPayload{
		RunID:      res.RunID,
		Workflow:   res.Workflow,
		Result:     resultBytes,
		Steps:      stepBytes,
		Error:      errStr,
		DurationNs: res.Duration.Nanoseconds(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRunPayload(data []byte) (*api.RunResult, error) {
	if len(data) == 0 {
		return nil, ErrRunNotFound
	}
	var payload redisRunPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, err
	}

	resultVal, err := DecodeValue[any](payload.Result)
	if err != nil {
		return nil, err
	}
	stepsVal, err := DecodeValue[[]api.StepRecord](payload.Steps)
	if err != nil {
		return nil, err
	}

	res := &api.RunResult{
		RunID:    payload.RunID,
		Workflow: payload.Workflow,
		Result:   resultVal,
		Steps:    stepsVal,
		Duration: time.Duration(payload.DurationNs),
	}
	if payload.Error != "" {
		res.Err = errors.New(payload.Error)
	}
	return res, nil
}

func (s *RedisRunStore) SaveRun(ctx context.Context, res *api.RunResult) error {
	data, err := encodeRunPayload(res)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keyRun(res.RunID), data, 0).Err(); err != nil {
		return err
	}

	// Index updates are best-effort; ListRuns re-filters by payload.
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.keyAll(), res.RunID)
	pipe.SAdd(ctx, s.keyWorkflow(res.Workflow), res.RunID)
	if res.Err != nil {
		pipe.SAdd(ctx, s.keyFailed(), res.RunID)
	}
	_, _ = pipe.Exec(ctx)

	return nil
}

func (s *RedisRunStore) GetRun(ctx context.Context, runID string) (*api.RunResult, error) {
	data, err := s.client.Get(ctx, s.keyRun(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return decodeRunPayload(data)
}

func (s *RedisRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]*api.RunResult, error) {
	var ids []string
	var err error

	switch {
	case filter.Workflow != "" && filter.Outcome == OutcomeFailed:
		ids, err = s.client.SInter(ctx, s.keyWorkflow(filter.Workflow), s.keyFailed()).Result()
	case filter.Workflow != "":
		ids, err = s.client.SMembers(ctx, s.keyWorkflow(filter.Workflow)).Result()
	case filter.Outcome == OutcomeFailed:
		ids, err = s.client.SMembers(ctx, s.keyFailed()).Result()
	default:
		ids, err = s.client.SMembers(ctx, s.keyAll()).Result()
	}

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*api.RunResult{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []*api.RunResult{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keyRun(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var runs []*api.RunResult
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		res, err := decodeRunPayload(data)
		if err != nil {
			return nil, err
		}
		// Set membership can lag the payload; the payload wins.
		if matchesFilter(res, filter) {
			runs = append(runs, res)
		}
	}

	return runs, nil
}

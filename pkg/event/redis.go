package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/stepflow/internal/persistence"
	"github.com/petrijr/stepflow/pkg/api"
)

// RedisHub is an EventHandler backed by Redis lists, for deployments
// where the sender and the waiting run live in different processes.
//
// Each (runID, stepName, eventType) triple maps to one list:
//
//	<prefix>evt:<runID>:<stepName>:<eventType>
//
// SendEvent pushes a gob-encoded payload; Wait pops with BLPOP. Events
// sent before the wait begins sit in the list until popped.
type RedisHub struct {
	client *redis.Client
	prefix string
}

// NewRedisHub creates a RedisHub.
// prefix is optional but recommended (e.g. "stepflow:").
func NewRedisHub(client *redis.Client, prefix string) *RedisHub {
	if prefix == "" {
		prefix = "stepflow:"
	}
	return &RedisHub{
		client: client,
		prefix: prefix,
	}
}

var _ api.EventHandler = (*RedisHub)(nil)

func (h *RedisHub) key(runID, stepName, eventType string) string {
	return h.prefix + "evt:" + runID + ":" + stepName + ":" + eventType
}

func (h *RedisHub) Wait(ctx context.Context, runID, stepName, eventType string, timeout time.Duration) (any, error) {
	// A negative timeout is a caller bug, not a request to wait forever.
	if timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout %v", api.ErrInvalidDuration, timeout)
	}

	// BLPOP with timeout 0 blocks until an element arrives; ctx
	// cancellation still aborts the call.

	vals, err := h.client.BLPop(ctx, timeout, h.key(runID, stepName, eventType)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s/%s/%s after %v", api.ErrEventTimeout, runID, stepName, eventType, timeout)
		}
		return nil, err
	}
	// vals is [key, value].
	if len(vals) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of length %d", len(vals))
	}
	return persistence.DecodeValue[any]([]byte(vals[1]))
}

func (h *RedisHub) SendEvent(ctx context.Context, runID, stepName, eventType string, data any) error {
	payload, err := persistence.EncodeValue(data)
	if err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrNotSerializable, err)
	}
	return h.client.RPush(ctx, h.key(runID, stepName, eventType), payload).Err()
}

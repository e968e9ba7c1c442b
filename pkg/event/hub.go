package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/petrijr/stepflow/internal/persistence"
	"github.com/petrijr/stepflow/pkg/api"
)

// Hub is an in-process EventHandler that routes events between
// goroutines. It is safe for concurrent use across simultaneously
// executing runs.
//
// Events sent before a matching Wait are buffered, so SendEvent never
// loses an event to a race with the waiting step.
type Hub struct {
	mu      sync.Mutex
	waiters map[string][]chan any
	pending map[string][]any
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		waiters: make(map[string][]chan any),
		pending: make(map[string][]any),
	}
}

var _ api.EventHandler = (*Hub)(nil)

func hubKey(runID, stepName, eventType string) string {
	return runID + "\x00" + stepName + "\x00" + eventType
}

func (h *Hub) Wait(ctx context.Context, runID, stepName, eventType string, timeout time.Duration) (any, error) {
	// A negative timeout is a caller bug, not a request to wait forever.
	if timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout %v", api.ErrInvalidDuration, timeout)
	}

	key := hubKey(runID, stepName, eventType)

	h.mu.Lock()
	if queue := h.pending[key]; len(queue) > 0 {
		data := queue[0]
		if len(queue) == 1 {
			delete(h.pending, key)
		} else {
			h.pending[key] = queue[1:]
		}
		h.mu.Unlock()
		return data, nil
	}

	ch := make(chan any, 1)
	h.waiters[key] = append(h.waiters[key], ch)
	h.mu.Unlock()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case data := <-ch:
		return data, nil
	case <-timer:
		h.abandon(key, ch)
		// A send may have landed between the timer firing and the
		// waiter being removed.
		select {
		case data := <-ch:
			return data, nil
		default:
		}
		return nil, fmt.Errorf("%w: %s/%s/%s after %v", api.ErrEventTimeout, runID, stepName, eventType, timeout)
	case <-ctx.Done():
		h.abandon(key, ch)
		select {
		case data := <-ch:
			return data, nil
		default:
		}
		return nil, ctx.Err()
	}
}

// abandon removes ch from the waiter list for key, if still present.
func (h *Hub) abandon(key string, ch chan any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	queue := h.waiters[key]
	for i, w := range queue {
		if w == ch {
			queue = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	if len(queue) == 0 {
		delete(h.waiters, key)
	} else {
		h.waiters[key] = queue
	}
}

func (h *Hub) SendEvent(ctx context.Context, runID, stepName, eventType string, data any) error {
	if err := persistence.CheckSerializable(data); err != nil {
		return err
	}

	key := hubKey(runID, stepName, eventType)

	h.mu.Lock()
	defer h.mu.Unlock()

	if queue := h.waiters[key]; len(queue) > 0 {
		ch := queue[0]
		if len(queue) == 1 {
			delete(h.waiters, key)
		} else {
			h.waiters[key] = queue[1:]
		}
		ch <- data
		return nil
	}

	h.pending[key] = append(h.pending[key], data)
	return nil
}

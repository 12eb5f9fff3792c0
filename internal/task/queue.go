package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/downbeat/internal/domain"
)

// Common errors returned by the Queue. Both wrap
// domain.ErrQueueUnavailable so submitters can branch on the single
// sentinel.
var (
	ErrQueueClosed = fmt.Errorf("%w: queue is closed", domain.ErrQueueUnavailable)
	ErrQueueFull   = fmt.Errorf("%w: queue is full", domain.ErrQueueUnavailable)
)

// Queue is the durable dispatch queue. Submissions are persisted to the
// store first (source of truth), then handed to workers over a buffered
// channel. A pending set keyed by task ID makes resubmission of the same
// ID idempotent: the store row is overwritten (last write wins) but no
// second dispatch entry is created.
type Queue struct {
	store  Store
	tasks  chan *Invocation
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
}

// NewQueue creates a queue with the specified channel buffer size.
func NewQueue(store Store, size int, logger *slog.Logger) *Queue {
	return &Queue{
		store:   store,
		tasks:   make(chan *Invocation, size),
		logger:  logger.With("component", "task_queue"),
		pending: make(map[string]struct{}),
	}
}

// Submit persists the invocation and enqueues it for processing.
// Returns an error wrapping domain.ErrQueueUnavailable if the queue is
// closed or full, or if the durable write failed; the queue never retries
// on behalf of the submitter.
func (q *Queue) Submit(ctx context.Context, inv *Invocation) error {
	now := time.Now().UTC()
	inv.Status = StatusPending
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	if err := q.store.SaveTask(ctx, inv); err != nil {
		return fmt.Errorf("%w: durable write failed: %v", domain.ErrQueueUnavailable, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	if _, dup := q.pending[inv.TaskID]; dup {
		// Resubmission of a known ID: the store row was just overwritten,
		// dispatch entry already exists.
		q.logger.Debug("duplicate submission absorbed",
			"task_id", inv.TaskID,
			"task_name", inv.Name)
		return nil
	}

	select {
	case q.tasks <- inv:
		q.pending[inv.TaskID] = struct{}{}
		q.logger.Debug("task enqueued",
			"task_id", inv.TaskID,
			"task_name", inv.Name,
			"label", inv.Label,
			"queue_len", len(q.tasks),
			"queue_cap", cap(q.tasks))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Requeue re-adds an already-persisted invocation to the dispatch channel,
// used during startup recovery and stuck-task reset. It does not touch the
// store.
func (q *Queue) Requeue(inv *Invocation) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if _, dup := q.pending[inv.TaskID]; dup {
		return nil
	}

	select {
	case q.tasks <- inv:
		q.pending[inv.TaskID] = struct{}{}
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Claim returns the read side of the dispatch channel. Receiving from it
// blocks until a task is available or the queue is closed.
func (q *Queue) Claim() <-chan *Invocation {
	return q.tasks
}

// Ack releases the pending entry for a task after its terminal result has
// been processed, allowing the ID to be submitted again in the future.
func (q *Queue) Ack(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, taskID)
}

// Close closes the queue, preventing further task submission.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
		q.logger.Info("task queue closed")
	}
}

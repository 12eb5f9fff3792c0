package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/result"
)

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:            2,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background task processing: a pool of workers pulls
// invocations from the queue, applies the middleware chain, runs the body
// through the retry policy, and on the single terminal outcome fires the
// terminal hooks and persists the normalized result. Notification dispatch
// and result persistence are independent side effects of the terminal
// transition; failure of one never suppresses the other.
type Runner struct {
	queue       *Queue
	store       Store
	registry    *Registry
	policy      *RetryPolicy
	middlewares []Middleware
	hooks       TerminalHooks
	backend     result.Backend

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunner wires a runner from its collaborators. hooks and backend may
// not be nil; silent pipelines pass a no-op hook implementation.
func NewRunner(
	queue *Queue,
	store Store,
	registry *Registry,
	policy *RetryPolicy,
	middlewares []Middleware,
	hooks TerminalHooks,
	backend result.Backend,
	config RunnerConfig,
	logger *slog.Logger,
) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:       queue,
		store:       store,
		registry:    registry,
		policy:      policy,
		middlewares: middlewares,
		hooks:       hooks,
		backend:     backend,
		ctx:         ctx,
		cancelFunc:  cancel,
		config:      config,
		logger:      logger.With("component", "task_runner"),
	}
}

// Start recovers unfinished tasks and begins processing.
func (r *Runner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the runner, waiting for in-flight tasks.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.queue.Close()
	r.wg.Wait()
}

// Recover requeues tasks left over from a previous run: pending rows go
// straight back to the queue, interrupted processing rows are reset to
// pending first.
func (r *Runner) Recover() error {
	ctx := context.Background()

	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, inv := range pending {
		if err := r.queue.Requeue(inv); err != nil {
			r.logger.Error("failed to requeue pending task",
				"task_id", inv.TaskID,
				"task_name", inv.Name,
				"error", err)
		}
	}

	for _, inv := range processing {
		if err := r.store.UpdateTaskStatus(ctx, inv.TaskID, StatusPending, "reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", inv.TaskID,
				"task_name", inv.Name,
				"error", err)
			continue
		}
		inv.Status = StatusPending

		if err := r.queue.Requeue(inv); err != nil {
			r.logger.Error("failed to requeue processing task",
				"task_id", inv.TaskID,
				"task_name", inv.Name,
				"error", err)
		}
	}

	return nil
}

// worker processes tasks from the queue.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case inv, ok := <-r.queue.Claim():
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(inv, id)
		}
	}
}

// processTask handles execution of a single claimed invocation through to
// its terminal state. It is the only place terminal hooks fire, and it
// fires exactly one of them exactly once per invocation.
func (r *Runner) processTask(inv *Invocation, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", inv.TaskID,
		"task_name", inv.Name,
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, inv.TaskID, StatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
	}
	inv.Status = StatusProcessing

	for _, mw := range r.middlewares {
		mw.BeforeExecute(ctx, inv)
	}

	logger.Info("processing task", "label", inv.Label)

	res, err := r.runBody(ctx, inv)

	// Terminal transition is recorded before either side effect so that
	// the dispatcher and backend only ever observe terminal tasks.
	if err != nil {
		logger.Error("task failed terminally",
			"attempts", inv.Attempt,
			"error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, inv.TaskID, StatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}
		inv.Status = StatusFailed

		r.hooks.OnFailure(ctx, inv, err)
		r.persist(ctx, logger, result.Failure(inv.TaskID, err))
	} else {
		logger.Info("task completed successfully",
			"attempts", inv.Attempt,
			"kind", res.Kind)
		if updateErr := r.store.UpdateTaskStatus(ctx, inv.TaskID, StatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update task status to completed", "error", updateErr)
		}
		inv.Status = StatusCompleted

		r.hooks.OnSuccess(ctx, inv, res)
		r.persist(ctx, logger, result.Success(inv.TaskID, res))
	}

	r.queue.Ack(inv.TaskID)
}

// runBody resolves the handler and drives it through the retry policy.
func (r *Runner) runBody(ctx context.Context, inv *Invocation) (domain.MediaResult, error) {
	handler, ok := r.registry.Resolve(inv.Name)
	if !ok {
		return domain.MediaResult{}, domain.Permanentf("no handler registered for task %q", inv.Name)
	}

	return r.policy.Run(ctx, inv.TaskID, func(ctx context.Context) (domain.MediaResult, error) {
		inv.Attempt++
		return handler(ctx, inv)
	})
}

// persist writes the terminal record; failures are logged here and do not
// affect the already-dispatched notification.
func (r *Runner) persist(ctx context.Context, logger *slog.Logger, rec result.Record) {
	if err := r.backend.Persist(ctx, rec); err != nil {
		logger.Error("failed to persist terminal result",
			"outcome", rec.Outcome,
			"error", err)
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in
// "processing" state for too long and resets them.
func (r *Runner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}
			if len(stuck) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuck))

			for _, inv := range stuck {
				if err := r.store.UpdateTaskStatus(ctx, inv.TaskID, StatusPending,
					"reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", inv.TaskID,
						"task_name", inv.Name,
						"error", err)
					continue
				}
				inv.Status = StatusPending

				if err := r.queue.Requeue(inv); err != nil {
					r.logger.Error("failed to requeue stuck task",
						"task_id", inv.TaskID,
						"task_name", inv.Name,
						"error", err)
					continue
				}
				r.logger.Info("requeued stuck task",
					"task_id", inv.TaskID,
					"task_name", inv.Name)
			}
		}
	}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phrazzld/downbeat/internal/platform/logger"
	"github.com/phrazzld/downbeat/internal/store"
	"github.com/phrazzld/downbeat/internal/task"
)

// TaskStore implements the task.Store interface using PostgreSQL.
// The tasks table is the durable source of truth for submitted work; the
// in-memory dispatch queue is rebuilt from it on startup.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a TaskStore over a database handle or transaction.
func NewTaskStore(db store.DBTX) *TaskStore {
	return &TaskStore{db: db}
}

// SaveTask persists an invocation. Submitting an existing task ID
// overwrites the previous row (last write wins), which makes resubmission
// with a caller-supplied ID idempotent at the storage layer.
func (s *TaskStore) SaveTask(ctx context.Context, inv *task.Invocation) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, name, args, label, user_id, reply_to, status, attempt, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name          = EXCLUDED.name,
			args          = EXCLUDED.args,
			label         = EXCLUDED.label,
			user_id       = EXCLUDED.user_id,
			reply_to      = EXCLUDED.reply_to,
			status        = EXCLUDED.status,
			attempt       = EXCLUDED.attempt,
			error_message = '',
			updated_at    = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, query,
		inv.TaskID,
		inv.Name,
		[]byte(inv.Args),
		inv.Label,
		inv.UserID,
		inv.ReplyTo,
		inv.Status,
		inv.Attempt,
		createdAt,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", inv.TaskID,
			"task_name", inv.Name,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, taskID string, status task.Status, errorMsg string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status",
			"task_id", taskID)
		return nil // Task not found, treat as no-op
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *TaskStore) GetPendingTasks(ctx context.Context) ([]*task.Invocation, error) {
	return s.getTasksByStatus(ctx, task.StatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// filtered to those older than the given duration.
func (s *TaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]*task.Invocation, error) {
	return s.getTasksByStatus(ctx, task.StatusProcessing, olderThan)
}

func (s *TaskStore) getTasksByStatus(ctx context.Context, status task.Status, olderThan time.Duration) ([]*task.Invocation, error) {
	log := logger.FromContext(ctx)

	var query string
	var args []any

	if olderThan > 0 {
		query = `
			SELECT id, name, args, label, user_id, reply_to, status, attempt, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []any{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, name, args, label, user_id, reply_to, status, attempt, created_at, updated_at
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []any{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer rows.Close()

	var invocations []*task.Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return invocations, nil
}

func scanInvocation(rows *sql.Rows) (*task.Invocation, error) {
	var inv task.Invocation
	var args []byte

	if err := rows.Scan(
		&inv.TaskID,
		&inv.Name,
		&args,
		&inv.Label,
		&inv.UserID,
		&inv.ReplyTo,
		&inv.Status,
		&inv.Attempt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan task row: %w", err)
	}

	inv.Args = args
	return &inv, nil
}

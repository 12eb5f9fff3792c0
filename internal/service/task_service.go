// Package service contains the application services that sit between the
// transport layer and the task pipeline.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/phrazzld/downbeat/internal/result"
	"github.com/phrazzld/downbeat/internal/task"
)

// SubmitParams describes one task submission from a request handler.
type SubmitParams struct {
	// Name selects the registered task handler.
	Name string

	// Args is the handler payload.
	Args json.RawMessage

	// Label selects the notification route; empty means silent.
	Label string

	// UserID identifies the requesting user, required for notification.
	UserID int64

	// ReplyTo optionally references the chat message to reply to.
	ReplyTo int64

	// TaskID, when non-empty, is used verbatim instead of allocating one.
	// Handlers supply it to correlate the task with an already-displayed
	// "processing" message.
	TaskID string
}

// TaskService exposes the submission and result-query operations consumed
// by request handlers.
type TaskService struct {
	queue     *task.Queue
	allocator *task.Allocator
	backend   result.Backend
}

// NewTaskService wires the service from its collaborators.
func NewTaskService(queue *task.Queue, allocator *task.Allocator, backend result.Backend) *TaskService {
	return &TaskService{
		queue:     queue,
		allocator: allocator,
		backend:   backend,
	}
}

// SubmitTask persists and enqueues a task, returning its ID. The task ID
// embeds the user ID as correlation so operators can trace a task back to
// its originating request.
func (s *TaskService) SubmitTask(ctx context.Context, params SubmitParams) (string, error) {
	taskID := params.TaskID
	if taskID == "" {
		taskID = s.allocator.Allocate(strconv.FormatInt(params.UserID, 10))
	}

	inv := &task.Invocation{
		TaskID:  taskID,
		Name:    params.Name,
		Args:    params.Args,
		Label:   params.Label,
		UserID:  params.UserID,
		ReplyTo: params.ReplyTo,
	}

	if err := s.queue.Submit(ctx, inv); err != nil {
		return "", fmt.Errorf("failed to submit task: %w", err)
	}

	return taskID, nil
}

// GetResult fetches the normalized terminal result for a task ID.
// Expired and unknown IDs surface domain.ErrResultNotFound.
func (s *TaskService) GetResult(ctx context.Context, taskID string) (result.Record, error) {
	return s.backend.Fetch(ctx, taskID)
}

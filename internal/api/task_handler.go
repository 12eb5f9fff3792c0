// Package api contains the HTTP handlers exposing the task submission and
// result query interfaces.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/downbeat/internal/api/shared"
	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/service"
)

// SubmitTaskRequest represents the request body for submitting a task.
type SubmitTaskRequest struct {
	Name    string          `json:"name"     validate:"required"`
	Args    json.RawMessage `json:"args"     validate:"required"`
	Label   string          `json:"label"`
	UserID  int64           `json:"user_id"  validate:"required"`
	ReplyTo int64           `json:"reply_to"`
	TaskID  string          `json:"task_id"`
}

// SubmitTaskResponse is returned on successful submission.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService *service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// Routes mounts the task endpoints on a router.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/tasks", h.SubmitTask)
	r.Get("/tasks/{taskID}/result", h.GetResult)
	return r
}

// SubmitTask handles POST /v1/tasks requests.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	taskID, err := h.taskService.SubmitTask(r.Context(), service.SubmitParams{
		Name:    req.Name,
		Args:    req.Args,
		Label:   req.Label,
		UserID:  req.UserID,
		ReplyTo: req.ReplyTo,
		TaskID:  req.TaskID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrQueueUnavailable) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Task queue unavailable")
			return
		}
		slog.Error("failed to submit task", "error", err, "task_name", req.Name)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit task")
		return
	}

	// 202 Accepted: processing happens asynchronously.
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{TaskID: taskID})
}

// GetResult handles GET /v1/tasks/{taskID}/result requests.
func (h *TaskHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return
	}

	rec, err := h.taskService.GetResult(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Result not found")
			return
		}
		slog.Error("failed to fetch task result", "error", err, "task_id", taskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to fetch result")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}

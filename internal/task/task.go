package task

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/phrazzld/downbeat/internal/domain"
)

// Status represents the current state of a task.
type Status string

// Possible task status values. Lifecycle:
// pending -> processing -> (processing, on retry)* -> completed | failed.
// Completed and failed are terminal; the notification dispatcher and
// result backend only ever observe terminal transitions.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task name constants.
const (
	TaskDownloadAlbum    = "download_album"
	TaskDownloadArtist   = "download_artist"
	TaskDownloadPlaylist = "download_playlist"
	TaskDownloadTrack    = "download_track"
)

// Sender delivers an outbound message to a user. Implemented by the
// notification transport; attached to invocations as a read-only handle.
type Sender interface {
	Deliver(ctx context.Context, userID int64, text string, replyTo int64) error
}

// Localizer resolves a message template by ID with named arguments.
type Localizer interface {
	FormatValue(id string, args map[string]any) string
}

// Deps holds the long-lived collaborator handles attached to each
// invocation by the depends middleware. Handles are shared and read-only;
// task bodies and the dispatcher must not mutate them.
type Deps struct {
	Sender    Sender
	Localizer Localizer
}

// Invocation is one request to run a background job.
type Invocation struct {
	// TaskID uniquely identifies the invocation and correlates it to the
	// originating user request (see Allocator for the ID structure).
	TaskID string `json:"task_id"`

	// Name selects the registered handler.
	Name string `json:"name"`

	// Args is the handler-specific payload.
	Args json.RawMessage `json:"args"`

	// Label selects the notification route. Empty or unrecognized labels
	// make the task silent.
	Label string `json:"label"`

	// UserID identifies the user to notify on terminal outcome.
	UserID int64 `json:"user_id"`

	// ReplyTo optionally references the chat message the notification
	// should reply to (0 = none).
	ReplyTo int64 `json:"reply_to"`

	// Attempt counts handler invocations, starting at 0.
	Attempt int `json:"attempt"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Deps carries collaborator handles; populated by middleware, never
	// persisted.
	Deps Deps `json:"-"`
}

// UnmarshalArgs decodes the invocation arguments into v.
func (inv *Invocation) UnmarshalArgs(v any) error {
	return json.Unmarshal(inv.Args, v)
}

// Handler executes a task body. Handlers may be re-invoked after a failed
// attempt and must therefore be safe to run again (partial side effects
// such as already-downloaded files are skipped, not rolled back).
type Handler func(ctx context.Context, inv *Invocation) (domain.MediaResult, error)

// Middleware is applied to an invocation before execution. Applying a
// middleware twice to the same invocation must be a no-op.
type Middleware interface {
	BeforeExecute(ctx context.Context, inv *Invocation)
}

// TerminalHooks receives the single terminal outcome of each task.
// The runner fires exactly one of the two hooks per task, after the retry
// policy concludes and the terminal status has been recorded.
type TerminalHooks interface {
	OnSuccess(ctx context.Context, inv *Invocation, result domain.MediaResult)
	OnFailure(ctx context.Context, inv *Invocation, err error)
}

// Store defines the interface for durably persisting invocations.
type Store interface {
	// SaveTask persists an invocation. Saving an existing task ID
	// overwrites the previous entry (last write wins).
	SaveTask(ctx context.Context, inv *Invocation) error

	// UpdateTaskStatus updates the status of a task.
	UpdateTaskStatus(ctx context.Context, taskID string, status Status, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status.
	GetPendingTasks(ctx context.Context) ([]*Invocation, error)

	// GetProcessingTasks retrieves tasks with "processing" status.
	// If olderThan is non-zero, only returns tasks that have been in this
	// state longer than the specified duration.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]*Invocation, error)
}

// Registry maps task names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a task name, replacing any previous binding.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Resolve looks up the handler for a task name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Package result persists terminal task outcomes in a transport-neutral
// form with TTL expiry. Domain objects are normalized before storage so
// the backend never needs to understand the media type hierarchy.
package result

import (
	"context"

	"github.com/phrazzld/downbeat/internal/domain"
)

// Outcome is the terminal disposition of a task.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Record is the persisted, transport-neutral result of a task.
type Record struct {
	TaskID      string         `json:"task_id"`
	Outcome     Outcome        `json:"outcome"`
	Kind        string         `json:"kind,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// Success normalizes a media result into a success record.
func Success(taskID string, m domain.MediaResult) Record {
	return Record{
		TaskID:  taskID,
		Outcome: OutcomeSuccess,
		Kind:    string(m.Kind),
		Fields:  m.Normalize(),
	}
}

// Failure builds a failure record carrying the terminal error description.
func Failure(taskID string, err error) Record {
	rec := Record{
		TaskID:  taskID,
		Outcome: OutcomeFailure,
	}
	if err != nil {
		rec.ErrorDetail = err.Error()
	}
	return rec
}

// Backend stores terminal results keyed by task ID.
type Backend interface {
	// Persist writes the record, overwriting any previous record for the
	// same task ID (last write wins). Write failures are returned as a
	// *domain.PersistenceError.
	Persist(ctx context.Context, rec Record) error

	// Fetch retrieves the record for a task ID. Expired or never-written
	// results return domain.ErrResultNotFound, not a backend error.
	Fetch(ctx context.Context, taskID string) (Record, error)
}

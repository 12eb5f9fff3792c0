package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrQueueUnavailable indicates the task queue could not accept or
	// durably record a submission. It is surfaced to the submitter and is
	// never retried by the queue itself.
	ErrQueueUnavailable = errors.New("task queue unavailable")

	// ErrResultNotFound indicates no result exists for a task ID, either
	// because the task never ran or because the stored result expired.
	ErrResultNotFound = errors.New("task result not found")
)

// TransientError marks an error as retryable (network hiccups, rate
// limits). The retry policy re-invokes the task body on these up to the
// attempt budget.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Transientf formats a retryable error.
func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// PermanentError marks an error as not retryable (invalid identifier,
// not-found upstream). The retry policy short-circuits on these without
// consuming the full attempt budget.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Permanentf formats a non-retryable error.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is marked not retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// PersistenceError wraps a result backend write failure. Persistence
// failures are logged at their origin and do not roll back the already
// delivered notification.
type PersistenceError struct {
	TaskID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist result for task %s: %v", e.TaskID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationDeliveryError wraps a failure to deliver a terminal outcome
// message. Delivery failures are logged, never retried through the task
// retry mechanism.
type NotificationDeliveryError struct {
	UserID int64
	Err    error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver notification to user %d: %v", e.UserID, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error { return e.Err }

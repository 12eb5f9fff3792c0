package task

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface,
// used in tests and available for single-process setups without Postgres.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*Invocation

	// failSave, when set, makes SaveTask return the error. Test hook.
	failSave error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*Invocation)}
}

// SaveTask stores a copy of the invocation, overwriting any previous
// entry with the same ID.
func (s *MemoryStore) SaveTask(_ context.Context, inv *Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	cp := *inv
	s.tasks[inv.TaskID] = &cp
	return nil
}

// UpdateTaskStatus updates the stored status; unknown IDs are a no-op.
func (s *MemoryStore) UpdateTaskStatus(_ context.Context, taskID string, status Status, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.tasks[taskID]; ok {
		inv.Status = status
		inv.UpdatedAt = time.Now().UTC()
		_ = errorMsg
	}
	return nil
}

// GetPendingTasks returns copies of all pending invocations.
func (s *MemoryStore) GetPendingTasks(_ context.Context) ([]*Invocation, error) {
	return s.byStatus(StatusPending, 0), nil
}

// GetProcessingTasks returns copies of processing invocations, optionally
// filtered by age.
func (s *MemoryStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]*Invocation, error) {
	return s.byStatus(StatusProcessing, olderThan), nil
}

// Get returns the stored invocation for a task ID, if any. Test helper.
func (s *MemoryStore) Get(taskID string) (*Invocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.tasks[taskID]
	if !ok {
		return nil, false
	}
	cp := *inv
	return &cp, true
}

func (s *MemoryStore) byStatus(status Status, olderThan time.Duration) []*Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var out []*Invocation
	for _, inv := range s.tasks {
		if inv.Status != status {
			continue
		}
		if olderThan > 0 && !inv.UpdatedAt.Before(cutoff) {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	return out
}

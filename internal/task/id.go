package task

import (
	"strings"

	"github.com/google/uuid"
)

// Allocator produces task IDs of the form
// <prefix>:<correlation...>:<random suffix>, keeping IDs human-traceable
// to their originating request while remaining globally unique (the UUID
// suffix carries 122 bits of entropy).
type Allocator struct {
	prefix string
}

// NewAllocator creates an allocator with a fixed prefix, typically the
// broker name (e.g. "tasker:broker").
func NewAllocator(prefix string) *Allocator {
	return &Allocator{prefix: prefix}
}

// Allocate returns a fresh task ID embedding the given correlation parts.
func (a *Allocator) Allocate(correlation ...string) string {
	parts := make([]string, 0, len(correlation)+2)
	parts = append(parts, a.prefix)
	parts = append(parts, correlation...)
	parts = append(parts, strings.ReplaceAll(uuid.NewString(), "-", ""))
	return strings.Join(parts, ":")
}

// ShortID returns the trailing segment of a task ID, used by notification
// routes that display IDs without the broker prefix.
func ShortID(taskID string) string {
	if i := strings.LastIndex(taskID, ":"); i >= 0 {
		return taskID[i+1:]
	}
	return taskID
}

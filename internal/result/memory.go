package result

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/downbeat/internal/domain"
)

// MemoryBackend is an in-process Backend for tests and single-process
// setups without Redis. Expiry is checked lazily on fetch.
type MemoryBackend struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	records map[string]memoryEntry
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// NewMemoryBackend creates an in-memory backend with the given TTL.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		ttl:     ttl,
		now:     time.Now,
		records: make(map[string]memoryEntry),
	}
}

// Persist stores the record, overwriting any previous record for the same
// task ID.
func (b *MemoryBackend) Persist(_ context.Context, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.TaskID] = memoryEntry{rec: rec, expiresAt: b.now().Add(b.ttl)}
	return nil
}

// Fetch retrieves a stored record, treating expired entries as absent.
func (b *MemoryBackend) Fetch(_ context.Context, taskID string) (Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.records[taskID]
	if !ok {
		return Record{}, domain.ErrResultNotFound
	}
	if b.now().After(entry.expiresAt) {
		delete(b.records, taskID)
		return Record{}, domain.ErrResultNotFound
	}
	return entry.rec, nil
}

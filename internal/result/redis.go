package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	r "github.com/redis/go-redis/v9"

	"github.com/phrazzld/downbeat/internal/domain"
)

// RedisBackend stores result records as JSON values with a TTL set at
// write time, so expiry needs no janitor process.
type RedisBackend struct {
	rdb    *r.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisBackend creates a backend over an existing client. Records
// expire after ttl.
func NewRedisBackend(rdb *r.Client, ttl time.Duration, logger *slog.Logger) *RedisBackend {
	return &RedisBackend{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "result_backend"),
	}
}

func resultKey(taskID string) string {
	return "result:" + taskID
}

// Persist writes the record with the configured TTL. A plain SET makes
// double-persist last-write-wins.
func (b *RedisBackend) Persist(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return &domain.PersistenceError{TaskID: rec.TaskID, Err: err}
	}

	if err := b.rdb.Set(ctx, resultKey(rec.TaskID), payload, b.ttl).Err(); err != nil {
		b.logger.Error("failed to persist result",
			"task_id", rec.TaskID,
			"outcome", rec.Outcome,
			"error", err)
		return &domain.PersistenceError{TaskID: rec.TaskID, Err: err}
	}

	b.logger.Debug("result persisted",
		"task_id", rec.TaskID,
		"outcome", rec.Outcome,
		"kind", rec.Kind,
		"ttl", b.ttl)
	return nil
}

// Fetch retrieves a stored record. Missing and expired keys both map to
// domain.ErrResultNotFound.
func (b *RedisBackend) Fetch(ctx context.Context, taskID string) (Record, error) {
	payload, err := b.rdb.Get(ctx, resultKey(taskID)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return Record{}, domain.ErrResultNotFound
		}
		return Record{}, fmt.Errorf("failed to fetch result for task %s: %w", taskID, err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode result for task %s: %w", taskID, err)
	}
	return rec, nil
}

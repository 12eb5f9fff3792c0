package result

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/downbeat/internal/domain"
)

// redisClient connects to the instance named by REDIS_ADDR, skipping the
// test when the variable is unset.
func redisClient(t *testing.T) *r.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}

	client := r.NewClient(&r.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to ping Redis at %s: %v", addr, err)
	}
	return client
}

func testSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedisBackendRoundTrip(t *testing.T) {
	backend := NewRedisBackend(redisClient(t), time.Minute, testSlog())
	ctx := context.Background()

	rec := Success("t:redis:roundtrip", domain.NewAlbumResult("Burial", "Untrue", 13))
	require.NoError(t, backend.Persist(ctx, rec))

	got, err := backend.Fetch(ctx, "t:redis:roundtrip")
	require.NoError(t, err)
	assert.Equal(t, rec.Outcome, got.Outcome)
	assert.Equal(t, rec.Kind, got.Kind)
	assert.Equal(t, "Burial", got.Fields["artist"])
}

func TestRedisBackendMissingRecord(t *testing.T) {
	backend := NewRedisBackend(redisClient(t), time.Minute, testSlog())

	_, err := backend.Fetch(context.Background(), "t:redis:never-written")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestRedisBackendTTLExpiry(t *testing.T) {
	client := redisClient(t)
	backend := NewRedisBackend(client, 50*time.Millisecond, testSlog())
	ctx := context.Background()

	require.NoError(t, backend.Persist(ctx, Failure("t:redis:ttl", context.DeadlineExceeded)))

	time.Sleep(100 * time.Millisecond)

	_, err := backend.Fetch(ctx, "t:redis:ttl")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

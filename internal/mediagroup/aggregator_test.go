package mediagroup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/downbeat/internal/events"
)

func TestAggregatorDeliversOneAlbumPerBurst(t *testing.T) {
	latency := 50 * time.Millisecond
	coalescer := New(latency, 2*latency, testLogger())

	var mu sync.Mutex
	var albums []*Album
	agg := NewAggregator(coalescer, AlbumHandlerFunc(func(_ context.Context, album *Album) error {
		mu.Lock()
		albums = append(albums, album)
		mu.Unlock()
		return nil
	}))

	var handler events.Handler = agg
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, handler.HandleMessage(ctx, photoMessage(1, "g1")))
	}()

	time.Sleep(latency / 4)
	for id := int64(2); id <= 4; id++ {
		require.NoError(t, handler.HandleMessage(ctx, photoMessage(id, "g1")))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, albums, 1)
	assert.Len(t, albums[0].Items, 4)
}

func TestAggregatorPassesKeylessThrough(t *testing.T) {
	coalescer := New(time.Hour, time.Hour, testLogger())

	var albums []*Album
	agg := NewAggregator(coalescer, AlbumHandlerFunc(func(_ context.Context, album *Album) error {
		albums = append(albums, album)
		return nil
	}))

	require.NoError(t, agg.HandleMessage(context.Background(), photoMessage(1, "")))
	require.Len(t, albums, 1)
	assert.Len(t, albums[0].Items, 1)
}

func TestAggregatorSilentForLosingEvents(t *testing.T) {
	latency := 50 * time.Millisecond
	coalescer := New(latency, 2*latency, testLogger())

	delivered := make(chan *Album, 2)
	agg := NewAggregator(coalescer, AlbumHandlerFunc(func(_ context.Context, album *Album) error {
		delivered <- album
		return nil
	}))
	ctx := context.Background()

	go func() { _ = agg.HandleMessage(ctx, photoMessage(1, "g1")) }()
	time.Sleep(latency / 4)

	// The losing event returns before the window closes and triggers no
	// delivery of its own.
	start := time.Now()
	require.NoError(t, agg.HandleMessage(ctx, photoMessage(2, "g1")))
	assert.Less(t, time.Since(start), latency)

	album := <-delivered
	assert.Len(t, album.Items, 2)
	select {
	case extra := <-delivered:
		t.Fatalf("unexpected second delivery with %d items", len(extra.Items))
	case <-time.After(2 * latency):
	}
}

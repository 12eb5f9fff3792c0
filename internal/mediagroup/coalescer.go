package mediagroup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/downbeat/internal/events"
)

// Default timing, matching the upstream bot's middleware.
const (
	DefaultLatency = 100 * time.Millisecond
	DefaultTTL     = 200 * time.Millisecond
)

// Coalescer merges bursts of related media events into one Album per
// group key. The first event for a key creates and owns the group: that
// caller alone waits out the debounce window and receives the flushed
// aggregate. Events arriving during the window are appended and return
// nothing. Creation, append, and the flush read all happen under one
// lock, so two events racing on "key absent" can never both create a
// group, and the flush always observes every append that won the window.
type Coalescer struct {
	latency time.Duration
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	groups map[string]*group
}

type group struct {
	album     *Album
	flushed   bool
	expiresAt time.Time
}

// New creates a coalescer with the given debounce latency and group TTL.
// Non-positive values fall back to the defaults.
func New(latency, ttl time.Duration, logger *slog.Logger) *Coalescer {
	if latency <= 0 {
		latency = DefaultLatency
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coalescer{
		latency: latency,
		ttl:     ttl,
		logger:  logger.With("component", "media_coalescer"),
		now:     time.Now,
		groups:  make(map[string]*group),
	}
}

// OnEvent feeds one inbound message into the coalescer. It returns the
// closed Album exactly once per group: to the caller that created the
// group, after the debounce window elapses. All other calls return nil.
// Messages without a group key bypass coalescing and are wrapped as
// single-item albums immediately.
//
// The debounce wait is a suspension point local to the owning caller;
// losing callers return without blocking.
func (c *Coalescer) OnEvent(ctx context.Context, msg events.InboundMessage) (*Album, error) {
	if msg.GroupKey == "" {
		return newAlbum(msg), nil
	}

	c.mu.Lock()
	c.evictExpired()

	if g, ok := c.groups[msg.GroupKey]; ok {
		if g.flushed {
			// Straggler after the group closed but before TTL eviction.
			// It joins nothing: the aggregate was already delivered, and
			// cross-burst contamination is worse than dropping a late
			// duplicate carrier.
			c.logger.Debug("dropping late event for closed group",
				"group_key", msg.GroupKey,
				"message_id", msg.ID)
			c.mu.Unlock()
			return nil, nil
		}
		g.album.append(msg)
		g.expiresAt = c.now().Add(c.ttl)
		c.mu.Unlock()
		return nil, nil
	}

	g := &group{
		album:     newAlbum(msg),
		expiresAt: c.now().Add(c.ttl),
	}
	c.groups[msg.GroupKey] = g
	c.mu.Unlock()

	// This caller won the creation race and owns the flush.
	timer := time.NewTimer(c.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		// Close the group anyway so losers can't wait forever on an
		// owner that never flushes.
		c.mu.Lock()
		g.flushed = true
		g.expiresAt = c.now().Add(c.ttl)
		c.mu.Unlock()
		return nil, ctx.Err()
	}

	c.mu.Lock()
	g.flushed = true
	g.expiresAt = c.now().Add(c.ttl)
	album := g.album
	c.mu.Unlock()

	c.logger.Debug("media group flushed",
		"group_key", msg.GroupKey,
		"item_count", len(album.Items))
	return album, nil
}

// evictExpired removes stale closed entries, so a later burst with the
// same key starts a fresh group. Open groups are never evicted: their
// owner is still inside the debounce wait and will close them. Called
// with c.mu held.
func (c *Coalescer) evictExpired() {
	now := c.now()
	for key, g := range c.groups {
		if g.flushed && now.After(g.expiresAt) {
			delete(c.groups, key)
		}
	}
}

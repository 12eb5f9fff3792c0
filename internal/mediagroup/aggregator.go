package mediagroup

import (
	"context"

	"github.com/phrazzld/downbeat/internal/events"
)

// AlbumHandler consumes closed aggregates.
type AlbumHandler interface {
	HandleAlbum(ctx context.Context, album *Album) error
}

// AlbumHandlerFunc adapts a function to the AlbumHandler interface.
type AlbumHandlerFunc func(ctx context.Context, album *Album) error

// HandleAlbum calls f(ctx, album).
func (f AlbumHandlerFunc) HandleAlbum(ctx context.Context, album *Album) error {
	return f(ctx, album)
}

// Aggregator adapts an AlbumHandler into an events.Handler: inbound
// messages are fed through the coalescer, and the downstream handler is
// invoked exactly once per closed aggregate, by the goroutine that owned
// the group's debounce window.
type Aggregator struct {
	coalescer *Coalescer
	next      AlbumHandler
}

// NewAggregator wraps next behind the coalescer.
func NewAggregator(coalescer *Coalescer, next AlbumHandler) *Aggregator {
	return &Aggregator{coalescer: coalescer, next: next}
}

// HandleMessage implements events.Handler.
func (a *Aggregator) HandleMessage(ctx context.Context, msg events.InboundMessage) error {
	album, err := a.coalescer.OnEvent(ctx, msg)
	if err != nil {
		return err
	}
	if album == nil {
		return nil
	}
	return a.next.HandleAlbum(ctx, album)
}

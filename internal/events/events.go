// Package events defines the inbound event carrier types and the handler
// interface the ingestion pipeline is built from. Transports produce
// InboundMessage values; processing stages implement Handler and can be
// chained, each stage wrapping the next.
package events

import "context"

// ItemKind classifies an inbound media item.
type ItemKind string

// Recognized media item kinds.
const (
	KindPhoto    ItemKind = "photo"
	KindVideo    ItemKind = "video"
	KindAudio    ItemKind = "audio"
	KindDocument ItemKind = "document"
)

// Item is one media attachment of an inbound message.
type Item struct {
	Kind   ItemKind
	FileID string
}

// InboundMessage is the raw inbound event carrier: the chat message that
// delivered one media item, plus the group key linking burst members.
// An empty GroupKey means the message is not part of a burst.
type InboundMessage struct {
	ID       int64
	ChatID   int64
	GroupKey string
	Caption  string
	Item     Item
}

// Handler consumes inbound messages. Implementations must be safe for
// concurrent calls; transports deliver events from multiple goroutines.
type Handler interface {
	HandleMessage(ctx context.Context, msg InboundMessage) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg InboundMessage) error

// HandleMessage calls f(ctx, msg).
func (f HandlerFunc) HandleMessage(ctx context.Context, msg InboundMessage) error {
	return f(ctx, msg)
}

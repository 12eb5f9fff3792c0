// Package mediagroup coalesces burst-arriving related inbound media
// events (a multi-item upload) into a single aggregate delivered once to
// the downstream handler.
package mediagroup

import "github.com/phrazzld/downbeat/internal/events"

// Album is a closed aggregate group: all items that arrived under one
// group key within the debounce window, classified by kind but also
// preserving the unified arrival order and the raw carrier messages.
type Album struct {
	Photo    []events.Item
	Video    []events.Item
	Audio    []events.Item
	Document []events.Item

	// Items preserves unified arrival order across kinds.
	Items []events.Item

	// Messages holds the carriers in arrival order.
	Messages []events.InboundMessage

	// Caption is taken from the first message of the group.
	Caption string
}

func newAlbum(msg events.InboundMessage) *Album {
	a := &Album{Caption: msg.Caption}
	a.append(msg)
	return a
}

func (a *Album) append(msg events.InboundMessage) {
	a.Items = append(a.Items, msg.Item)
	a.Messages = append(a.Messages, msg)

	switch msg.Item.Kind {
	case events.KindPhoto:
		a.Photo = append(a.Photo, msg.Item)
	case events.KindVideo:
		a.Video = append(a.Video, msg.Item)
	case events.KindAudio:
		a.Audio = append(a.Audio, msg.Item)
	case events.KindDocument:
		a.Document = append(a.Document, msg.Item)
	}
}

// Kinds lists the item kinds present in the album, in a fixed order.
func (a *Album) Kinds() []events.ItemKind {
	var kinds []events.ItemKind
	if len(a.Photo) > 0 {
		kinds = append(kinds, events.KindPhoto)
	}
	if len(a.Video) > 0 {
		kinds = append(kinds, events.KindVideo)
	}
	if len(a.Audio) > 0 {
		kinds = append(kinds, events.KindAudio)
	}
	if len(a.Document) > 0 {
		kinds = append(kinds, events.KindDocument)
	}
	return kinds
}

package notify

import (
	"fmt"
	"html"
	"strings"
)

// Message template IDs.
const (
	MsgAlbum    = "note-album"
	MsgArtist   = "note-artist"
	MsgPlaylist = "note-playlist"
	MsgTrack    = "note-track"
	MsgFail     = "note-fail"
	MsgUnknown  = "note-unknown"
)

// defaultTemplates mirrors the bot's fluent message catalog. Placeholders
// use { $name } syntax; string values are HTML-escaped at format time
// because the transport sends HTML parse mode.
var defaultTemplates = map[string]string{
	MsgAlbum:    "🎶 <b>{ $artist } — { $title }</b>\nAlbum with { $track_count } tracks downloaded.\n<code>{ $task_id }</code>",
	MsgArtist:   "🎤 <b>{ $artist }</b>\nArtist discography downloaded.\n<code>{ $task_id }</code>",
	MsgPlaylist: "🎧 <b>{ $title }</b>\nPlaylist with { $track_count } tracks downloaded.\n<code>{ $task_id }</code>",
	MsgTrack:    "🎵 <b>{ $artist } — { $title }</b>\nTrack downloaded.\n<code>{ $task_id }</code>",
	MsgFail:     "❌ Task <code>{ $task_id }</code> failed:\n<code>{ $info }</code>",
	MsgUnknown:  "⚠️ Task <code>{ $task_id }</code> finished in an unexpected state.",
}

// Localizer resolves message templates by ID. Loading locale files is the
// transport layer's concern; this provider keeps the catalog in memory.
type Localizer struct {
	templates map[string]string
}

// NewLocalizer returns a localizer with the default message catalog.
func NewLocalizer() *Localizer {
	return &Localizer{templates: defaultTemplates}
}

// NewLocalizerWithTemplates returns a localizer over a custom catalog,
// falling back to the defaults for missing IDs.
func NewLocalizerWithTemplates(templates map[string]string) *Localizer {
	merged := make(map[string]string, len(defaultTemplates)+len(templates))
	for id, tpl := range defaultTemplates {
		merged[id] = tpl
	}
	for id, tpl := range templates {
		merged[id] = tpl
	}
	return &Localizer{templates: merged}
}

// FormatValue renders the template with the given named arguments.
// String arguments are HTML-escaped. Unknown template IDs render a
// placeholder containing the ID so broken catalogs are visible rather
// than silent.
func (l *Localizer) FormatValue(id string, args map[string]any) string {
	tpl, ok := l.templates[id]
	if !ok {
		return fmt.Sprintf("[missing template %q]", id)
	}

	out := tpl
	for name, value := range args {
		var rendered string
		switch v := value.(type) {
		case string:
			rendered = html.EscapeString(v)
		default:
			rendered = fmt.Sprintf("%v", v)
		}
		out = strings.ReplaceAll(out, "{ $"+name+" }", rendered)
	}
	return out
}

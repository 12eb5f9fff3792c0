package domain

import (
	"errors"
	"fmt"
)

// MediaKind identifies the shape of a media download result.
type MediaKind string

// Recognized media result kinds.
const (
	KindAlbum    MediaKind = "album"
	KindArtist   MediaKind = "artist"
	KindPlaylist MediaKind = "playlist"
	KindTrack    MediaKind = "track"
)

// Common errors
var (
	ErrUnknownKind = errors.New("unknown media kind")
)

// MediaResult is the tagged union returned by download task bodies.
// Exactly the fields required by the Kind are meaningful; the rest are
// zero values. Task bodies set Kind themselves so that the notification
// layer never needs runtime type inspection of client library objects.
type MediaResult struct {
	Kind MediaKind `json:"kind"`

	// Artist name for album/artist/track kinds.
	Artist string `json:"artist,omitempty"`

	// Title for album/playlist/track kinds.
	Title string `json:"title,omitempty"`

	// TrackCount for album/playlist kinds.
	TrackCount int `json:"track_count,omitempty"`
}

// NewAlbumResult builds an album-kind result.
func NewAlbumResult(artist, title string, trackCount int) MediaResult {
	return MediaResult{Kind: KindAlbum, Artist: artist, Title: title, TrackCount: trackCount}
}

// NewArtistResult builds an artist-kind result.
func NewArtistResult(name string) MediaResult {
	return MediaResult{Kind: KindArtist, Artist: name}
}

// NewPlaylistResult builds a playlist-kind result.
func NewPlaylistResult(title string, trackCount int) MediaResult {
	return MediaResult{Kind: KindPlaylist, Title: title, TrackCount: trackCount}
}

// NewTrackResult builds a track-kind result.
func NewTrackResult(artist, title string) MediaResult {
	return MediaResult{Kind: KindTrack, Artist: artist, Title: title}
}

// Validate checks that the result carries the fields its kind requires.
func (m MediaResult) Validate() error {
	switch m.Kind {
	case KindAlbum:
		if m.Artist == "" || m.Title == "" {
			return fmt.Errorf("album result missing artist or title")
		}
	case KindArtist:
		if m.Artist == "" {
			return fmt.Errorf("artist result missing name")
		}
	case KindPlaylist:
		if m.Title == "" {
			return fmt.Errorf("playlist result missing title")
		}
	case KindTrack:
		if m.Artist == "" || m.Title == "" {
			return fmt.Errorf("track result missing artist or title")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}

// Normalize converts the result into a transport-neutral field map of
// primitive values, safe for generic storage backends that do not
// understand domain types.
func (m MediaResult) Normalize() map[string]any {
	fields := make(map[string]any, 3)
	switch m.Kind {
	case KindAlbum:
		fields["artist"] = m.Artist
		fields["title"] = m.Title
		fields["track_count"] = m.TrackCount
	case KindArtist:
		fields["name"] = m.Artist
	case KindPlaylist:
		fields["title"] = m.Title
		fields["track_count"] = m.TrackCount
	case KindTrack:
		fields["artist"] = m.Artist
		fields["title"] = m.Title
	}
	return fields
}

// Package tasks registers the download task bodies. The bodies are thin:
// they decode typed arguments and delegate to an opaque music service
// client, returning a tagged media result for the notification and
// persistence layers. All bodies are safe to re-invoke; the client skips
// files that already exist instead of rewriting them.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/task"
)

// Downloader is the opaque, fallible external music service client.
// Implementations classify their errors with domain.Transient and
// domain.Permanent so the retry policy can tell a rate limit from a bad
// identifier.
type Downloader interface {
	DownloadAlbum(ctx context.Context, albumID string) (domain.MediaResult, error)
	DownloadArtist(ctx context.Context, artistID string) (domain.MediaResult, error)
	DownloadPlaylist(ctx context.Context, ownerID string, playlistID string) (domain.MediaResult, error)
	DownloadTrack(ctx context.Context, trackID string) (domain.MediaResult, error)
}

// AlbumArgs is the payload for the download_album task.
type AlbumArgs struct {
	AlbumID string `json:"album_id"`
}

// ArtistArgs is the payload for the download_artist task.
type ArtistArgs struct {
	ArtistID string `json:"artist_id"`
}

// PlaylistArgs is the payload for the download_playlist task.
type PlaylistArgs struct {
	OwnerID    string `json:"owner_id"`
	PlaylistID string `json:"playlist_id"`
}

// TrackArgs is the payload for the download_track task.
type TrackArgs struct {
	TrackID string `json:"track_id"`
}

// Register binds all download handlers to the registry.
func Register(reg *task.Registry, dl Downloader) {
	reg.Register(task.TaskDownloadAlbum, func(ctx context.Context, inv *task.Invocation) (domain.MediaResult, error) {
		var args AlbumArgs
		if err := decodeArgs(inv, &args); err != nil {
			return domain.MediaResult{}, err
		}
		return dl.DownloadAlbum(ctx, args.AlbumID)
	})

	reg.Register(task.TaskDownloadArtist, func(ctx context.Context, inv *task.Invocation) (domain.MediaResult, error) {
		var args ArtistArgs
		if err := decodeArgs(inv, &args); err != nil {
			return domain.MediaResult{}, err
		}
		return dl.DownloadArtist(ctx, args.ArtistID)
	})

	reg.Register(task.TaskDownloadPlaylist, func(ctx context.Context, inv *task.Invocation) (domain.MediaResult, error) {
		var args PlaylistArgs
		if err := decodeArgs(inv, &args); err != nil {
			return domain.MediaResult{}, err
		}
		return dl.DownloadPlaylist(ctx, args.OwnerID, args.PlaylistID)
	})

	reg.Register(task.TaskDownloadTrack, func(ctx context.Context, inv *task.Invocation) (domain.MediaResult, error) {
		var args TrackArgs
		if err := decodeArgs(inv, &args); err != nil {
			return domain.MediaResult{}, err
		}
		return dl.DownloadTrack(ctx, args.TrackID)
	})
}

// decodeArgs treats malformed payloads as permanent: retrying cannot fix
// a bad argument shape.
func decodeArgs(inv *task.Invocation, v any) error {
	if err := json.Unmarshal(inv.Args, v); err != nil {
		return domain.Permanentf("invalid args for task %s: %v", inv.Name, err)
	}
	return nil
}

// Package musicapi is the HTTP client for the external download service.
// The pipeline treats it as an opaque, fallible collaborator: the client
// classifies its failures as transient or permanent so the retry policy
// can tell a rate limit from a bad identifier, and the download service
// itself is responsible for skipping files that already exist on disk.
package musicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/downbeat/internal/domain"
)

// Client calls the download service API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
		logger:  logger.With("component", "music_api_client"),
	}
}

// DownloadAlbum downloads a full album.
func (c *Client) DownloadAlbum(ctx context.Context, albumID string) (domain.MediaResult, error) {
	return c.download(ctx, "album", map[string]string{"album_id": albumID})
}

// DownloadArtist downloads an artist's direct albums.
func (c *Client) DownloadArtist(ctx context.Context, artistID string) (domain.MediaResult, error) {
	return c.download(ctx, "artist", map[string]string{"artist_id": artistID})
}

// DownloadPlaylist downloads a playlist and writes its m3u index.
func (c *Client) DownloadPlaylist(ctx context.Context, ownerID, playlistID string) (domain.MediaResult, error) {
	return c.download(ctx, "playlist", map[string]string{
		"owner_id":    ownerID,
		"playlist_id": playlistID,
	})
}

// DownloadTrack downloads a single track.
func (c *Client) DownloadTrack(ctx context.Context, trackID string) (domain.MediaResult, error) {
	return c.download(ctx, "track", map[string]string{"track_id": trackID})
}

func (c *Client) download(ctx context.Context, kind string, params map[string]string) (domain.MediaResult, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return domain.MediaResult{}, domain.Permanent(err)
	}

	url := fmt.Sprintf("%s/download/%s", c.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.MediaResult{}, domain.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Network failures are worth another attempt.
		return domain.MediaResult{}, domain.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result domain.MediaResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return domain.MediaResult{}, domain.Permanentf("malformed download response: %v", err)
		}
		if err := result.Validate(); err != nil {
			return domain.MediaResult{}, domain.Permanentf("invalid download result: %v", err)
		}
		return result, nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.MediaResult{}, domain.Permanentf("download service rejected %s request: %d %s",
			kind, resp.StatusCode, detail)

	default:
		// Rate limits and server errors are transient.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.MediaResult{}, domain.Transientf("download service returned %d: %s",
			resp.StatusCode, detail)
	}
}

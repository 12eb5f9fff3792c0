package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/task"
)

// mockDownloader records the arguments each method receives.
type mockDownloader struct {
	albumID    string
	artistID   string
	ownerID    string
	playlistID string
	trackID    string
	err        error
}

func (m *mockDownloader) DownloadAlbum(_ context.Context, albumID string) (domain.MediaResult, error) {
	m.albumID = albumID
	return domain.NewAlbumResult("A", "T", 10), m.err
}

func (m *mockDownloader) DownloadArtist(_ context.Context, artistID string) (domain.MediaResult, error) {
	m.artistID = artistID
	return domain.NewArtistResult("A"), m.err
}

func (m *mockDownloader) DownloadPlaylist(_ context.Context, ownerID, playlistID string) (domain.MediaResult, error) {
	m.ownerID = ownerID
	m.playlistID = playlistID
	return domain.NewPlaylistResult("P", 5), m.err
}

func (m *mockDownloader) DownloadTrack(_ context.Context, trackID string) (domain.MediaResult, error) {
	m.trackID = trackID
	return domain.NewTrackResult("A", "T"), m.err
}

func invocation(name string, args string) *task.Invocation {
	return &task.Invocation{
		TaskID: "t:1",
		Name:   name,
		Args:   json.RawMessage(args),
	}
}

func TestRegisterBindsAllHandlers(t *testing.T) {
	reg := task.NewRegistry()
	Register(reg, &mockDownloader{})

	for _, name := range []string{
		task.TaskDownloadAlbum,
		task.TaskDownloadArtist,
		task.TaskDownloadPlaylist,
		task.TaskDownloadTrack,
	} {
		_, ok := reg.Resolve(name)
		assert.True(t, ok, name)
	}
}

func TestAlbumHandlerDecodesArgs(t *testing.T) {
	reg := task.NewRegistry()
	dl := &mockDownloader{}
	Register(reg, dl)

	h, _ := reg.Resolve(task.TaskDownloadAlbum)
	res, err := h(context.Background(), invocation(task.TaskDownloadAlbum, `{"album_id":"alb-9"}`))

	require.NoError(t, err)
	assert.Equal(t, "alb-9", dl.albumID)
	assert.Equal(t, domain.KindAlbum, res.Kind)
}

func TestPlaylistHandlerDecodesBothIDs(t *testing.T) {
	reg := task.NewRegistry()
	dl := &mockDownloader{}
	Register(reg, dl)

	h, _ := reg.Resolve(task.TaskDownloadPlaylist)
	res, err := h(context.Background(), invocation(task.TaskDownloadPlaylist, `{"owner_id":"own-1","playlist_id":"pl-2"}`))

	require.NoError(t, err)
	assert.Equal(t, "own-1", dl.ownerID)
	assert.Equal(t, "pl-2", dl.playlistID)
	assert.Equal(t, domain.KindPlaylist, res.Kind)
}

func TestTrackHandlerDecodesArgs(t *testing.T) {
	reg := task.NewRegistry()
	dl := &mockDownloader{}
	Register(reg, dl)

	h, _ := reg.Resolve(task.TaskDownloadTrack)
	_, err := h(context.Background(), invocation(task.TaskDownloadTrack, `{"track_id":"trk-7"}`))

	require.NoError(t, err)
	assert.Equal(t, "trk-7", dl.trackID)
}

func TestMalformedArgsArePermanent(t *testing.T) {
	reg := task.NewRegistry()
	Register(reg, &mockDownloader{})

	h, _ := reg.Resolve(task.TaskDownloadTrack)
	_, err := h(context.Background(), invocation(task.TaskDownloadTrack, `"not an object"`))

	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
}

func TestDownloaderErrorsPassThrough(t *testing.T) {
	reg := task.NewRegistry()
	dl := &mockDownloader{err: domain.Transientf("rate limited")}
	Register(reg, dl)

	h, _ := reg.Resolve(task.TaskDownloadArtist)
	_, err := h(context.Background(), invocation(task.TaskDownloadArtist, `{"artist_id":"art-3"}`))

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

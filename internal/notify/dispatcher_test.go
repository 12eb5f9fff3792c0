package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/downbeat/internal/config"
	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/task"
)

// fakeSender records deliveries and optionally fails them.
type fakeSender struct {
	failWith   error
	deliveries []delivery
}

type delivery struct {
	userID  int64
	text    string
	replyTo int64
}

func (s *fakeSender) Deliver(_ context.Context, userID int64, text string, replyTo int64) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.deliveries = append(s.deliveries, delivery{userID: userID, text: text, replyTo: replyTo})
	return nil
}

func newLabeledInvocation(label string) *task.Invocation {
	return &task.Invocation{
		TaskID: "tasker:broker:42:deadbeef",
		Name:   task.TaskDownloadTrack,
		Label:  label,
		UserID: 42,
	}
}

func TestOnSuccessTrackNotification(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

	inv := newLabeledInvocation(LabelYandex)
	d.OnSuccess(context.Background(), inv, domain.NewTrackResult("A", "T"))

	require.Len(t, sender.deliveries, 1)
	got := sender.deliveries[0]
	assert.Equal(t, int64(42), got.userID)
	assert.Contains(t, got.text, "A — T")
	// The yandex route shows the full task ID.
	assert.Contains(t, got.text, "tasker:broker:42:deadbeef")
}

func TestOnSuccessSpotifyShortensTaskID(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

	inv := newLabeledInvocation(LabelSpotify)
	d.OnSuccess(context.Background(), inv, domain.NewAlbumResult("A", "T", 10))

	require.Len(t, sender.deliveries, 1)
	assert.Contains(t, sender.deliveries[0].text, "deadbeef")
	assert.NotContains(t, sender.deliveries[0].text, "tasker:broker")
}

func TestOnSuccessPerKindMessages(t *testing.T) {
	cases := []struct {
		name   string
		result domain.MediaResult
		want   []string
	}{
		{"album", domain.NewAlbumResult("Burial", "Untrue", 13), []string{"Burial — Untrue", "13 tracks"}},
		{"artist", domain.NewArtistResult("Autechre"), []string{"Autechre", "discography"}},
		{"playlist", domain.NewPlaylistResult("Focus", 25), []string{"Focus", "25 tracks"}},
		{"track", domain.NewTrackResult("Plaid", "Eyen"), []string{"Plaid — Eyen"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

			d.OnSuccess(context.Background(), newLabeledInvocation(LabelYandex), tc.result)

			require.Len(t, sender.deliveries, 1)
			for _, want := range tc.want {
				assert.Contains(t, sender.deliveries[0].text, want)
			}
		})
	}
}

func TestOnSuccessUnknownKindStillNotifies(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

	d.OnSuccess(context.Background(), newLabeledInvocation(LabelYandex), domain.MediaResult{Kind: "mixtape"})

	require.Len(t, sender.deliveries, 1)
	assert.Contains(t, sender.deliveries[0].text, "unexpected state")
}

func TestOnSuccessUnlabeledIsSilent(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

	d.OnSuccess(context.Background(), newLabeledInvocation(""), domain.NewTrackResult("A", "T"))
	d.OnSuccess(context.Background(), newLabeledInvocation("soundcloud"), domain.NewTrackResult("A", "T"))

	assert.Empty(t, sender.deliveries)
}

func TestOnSuccessTriggersRescanAfterDelivery(t *testing.T) {
	var rescans atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rescans.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rescanner := NewRescanner(config.RescanConfig{URL: server.URL, Username: "u"}, testLogger())
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), rescanner, testLogger())

	d.OnSuccess(context.Background(), newLabeledInvocation(LabelYandex), domain.NewTrackResult("A", "T"))

	assert.Len(t, sender.deliveries, 1)
	assert.Equal(t, int32(1), rescans.Load())
}

func TestOnSuccessSkipsRescanWhenDeliveryFails(t *testing.T) {
	var rescans atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rescans.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rescanner := NewRescanner(config.RescanConfig{URL: server.URL, Username: "u"}, testLogger())
	sender := &fakeSender{failWith: errors.New("chat not found")}
	d := NewDispatcher(sender, NewLocalizer(), rescanner, testLogger())

	d.OnSuccess(context.Background(), newLabeledInvocation(LabelYandex), domain.NewTrackResult("A", "T"))

	assert.Zero(t, rescans.Load())
}

func TestOnFailureNotification(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

	inv := newLabeledInvocation(LabelSpotify)
	inv.ReplyTo = 99
	d.OnFailure(context.Background(), inv, errors.New("album not found"))

	require.Len(t, sender.deliveries, 1)
	got := sender.deliveries[0]
	assert.Contains(t, got.text, "failed")
	assert.Contains(t, got.text, "album not found")
	assert.Contains(t, got.text, "deadbeef")
	assert.Equal(t, int64(99), got.replyTo)
}

func TestOnFailureUnlabeledIsSilent(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, NewLocalizer(), nil, testLogger())

	d.OnFailure(context.Background(), newLabeledInvocation(""), errors.New("boom"))

	assert.Empty(t, sender.deliveries)
}

func TestDispatcherPrefersInvocationHandles(t *testing.T) {
	constructorSender := &fakeSender{}
	injected := &fakeSender{}
	d := NewDispatcher(constructorSender, NewLocalizer(), nil, testLogger())

	inv := newLabeledInvocation(LabelYandex)
	inv.Deps = task.Deps{Sender: injected, Localizer: NewLocalizer()}
	d.OnSuccess(context.Background(), inv, domain.NewTrackResult("A", "T"))

	assert.Empty(t, constructorSender.deliveries)
	assert.Len(t, injected.deliveries, 1)
}

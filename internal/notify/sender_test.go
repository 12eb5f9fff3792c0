package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/downbeat/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestSender(t *testing.T, handler http.HandlerFunc, attempts int) *TelegramSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender := NewTelegramSender("test-token", attempts, testLogger())
	sender.baseURL = server.URL
	return sender
}

func TestDeliverSendsMessage(t *testing.T) {
	var captured sendMessageRequest
	var path string
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}, 1)

	err := sender.Deliver(context.Background(), 42, "<b>hello</b>", 7)
	require.NoError(t, err)

	assert.Equal(t, "/bottest-token/sendMessage", path)
	assert.Equal(t, int64(42), captured.ChatID)
	assert.Equal(t, "<b>hello</b>", captured.Text)
	assert.Equal(t, "HTML", captured.ParseMode)
	assert.Equal(t, int64(7), captured.ReplyToMessageID)
}

func TestDeliverOmitsZeroReplyTo(t *testing.T) {
	var raw map[string]any
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusOK)
	}, 1)

	require.NoError(t, sender.Deliver(context.Background(), 42, "hi", 0))
	assert.NotContains(t, raw, "reply_to_message_id")
}

func TestDeliverFailureReturnsDeliveryError(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	}, 1)

	err := sender.Deliver(context.Background(), 42, "hi", 0)
	require.Error(t, err)

	var deliveryErr *domain.NotificationDeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, int64(42), deliveryErr.UserID)
}

func TestDeliverRetriesPerConfiguredAttempts(t *testing.T) {
	var calls atomic.Int32
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}, 3)

	require.NoError(t, sender.Deliver(context.Background(), 42, "hi", 0))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}, 1)

	err := sender.Deliver(context.Background(), 42, "hi", 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

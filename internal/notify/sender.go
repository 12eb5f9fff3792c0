package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/downbeat/internal/domain"
	"github.com/phrazzld/downbeat/internal/redact"
)

// TelegramSender delivers messages through the Telegram Bot API.
// It implements task.Sender.
type TelegramSender struct {
	token  string
	client *http.Client
	logger *slog.Logger

	// attempts controls whether a failed delivery is itself retried.
	// 1 means fire-and-forget, matching the upstream bot's behavior.
	attempts int

	// baseURL is overridable for tests.
	baseURL string
}

// NewTelegramSender creates a sender for the given bot token.
// deliveryAttempts values below 1 are treated as 1.
func NewTelegramSender(token string, deliveryAttempts int, logger *slog.Logger) *TelegramSender {
	if deliveryAttempts < 1 {
		deliveryAttempts = 1
	}
	return &TelegramSender{
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With("component", "telegram_sender"),
		attempts: deliveryAttempts,
		baseURL:  "https://api.telegram.org",
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	ReplyToMessageID      int64  `json:"reply_to_message_id,omitempty"`
	DisableLinkPreview    bool   `json:"disable_web_page_preview"`
}

// Deliver sends the formatted text to the user, replying to replyTo when
// non-zero. Returns a *domain.NotificationDeliveryError on failure.
func (s *TelegramSender) Deliver(ctx context.Context, userID int64, text string, replyTo int64) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:             userID,
		Text:               text,
		ParseMode:          "HTML",
		ReplyToMessageID:   replyTo,
		DisableLinkPreview: true,
	})
	if err != nil {
		return &domain.NotificationDeliveryError{UserID: userID, Err: err}
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = s.send(ctx, url, body)
		if lastErr == nil {
			return nil
		}
		// Transport errors embed the request URL, token included.
		s.logger.Warn("notification delivery attempt failed",
			"user_id", userID,
			"attempt", attempt,
			"max_attempts", s.attempts,
			"error", redact.Error(lastErr))
	}
	return &domain.NotificationDeliveryError{UserID: userID, Err: errors.New(redact.Error(lastErr))}
}

func (s *TelegramSender) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

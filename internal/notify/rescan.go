package notify

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/downbeat/internal/config"
	"github.com/phrazzld/downbeat/internal/redact"
)

// Rescanner fires the media-library rescan signal (subsonic startScan)
// after a successful notification. Failures are the caller's to log and
// swallow; a failed rescan must never affect the notification's delivered
// status.
type Rescanner struct {
	endpoint string
	params   url.Values
	client   *http.Client
	logger   *slog.Logger
}

// NewRescanner builds a rescanner from config. Returns nil when no URL is
// configured; a nil Rescanner is safe to Trigger (no-op).
func NewRescanner(cfg config.RescanConfig, logger *slog.Logger) *Rescanner {
	if cfg.URL == "" {
		return nil
	}

	// Subsonic token auth: md5(password + salt), hex-encoded.
	sum := md5.Sum([]byte(cfg.Password + cfg.Salt))

	params := url.Values{}
	params.Set("u", cfg.Username)
	params.Set("t", hex.EncodeToString(sum[:]))
	params.Set("s", cfg.Salt)
	params.Set("v", "1.8.0")
	params.Set("c", "MusicDownloader")
	params.Set("f", "json")

	return &Rescanner{
		endpoint: cfg.URL,
		params:   params,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With("component", "rescanner"),
	}
}

// Trigger requests a library rescan.
func (r *Rescanner) Trigger(ctx context.Context) error {
	if r == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+r.params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		// Transport errors embed the request URL, token auth included.
		return fmt.Errorf("rescan request failed: %s", redact.Error(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rescan endpoint returned %d", resp.StatusCode)
	}

	r.logger.Debug("library rescan triggered")
	return nil
}

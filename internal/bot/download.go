package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/collector"
)

// DefaultMaxAttachmentBytes bounds how much of an attachment is read
const DefaultMaxAttachmentBytes = 500 << 20

// ErrAttachmentTooLarge is returned when an attachment exceeds the limit
var ErrAttachmentTooLarge = errors.New("attachment too large")

// Downloader reads attachment bytes from the Discord CDN
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloader creates a downloader. Zero values pick the defaults.
func NewDownloader(timeout time.Duration, maxBytes int64) *Downloader {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	return &Downloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads att.URL
func (d *Downloader) Fetch(ctx context.Context, att collector.Attachment) ([]byte, error) {
	if int64(att.Size) > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, att.Size)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download attachment: unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrAttachmentTooLarge, d.maxBytes)
	}
	return data, nil
}

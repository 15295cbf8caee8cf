package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Bridge publishes through an external userbot sidecar over HTTP: a multipart
// POST carrying the user id, the caption and the media bytes. The sidecar
// holds the account session; this process never sees credentials.
type Bridge struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

func NewBridge(endpoint string, client *http.Client, log *zap.Logger) *Bridge {
	if client == nil {
		client = http.DefaultClient
	}
	return &Bridge{endpoint: endpoint, client: client, log: log}
}

func (b *Bridge) Publish(ctx context.Context, userID int64, media io.Reader, caption string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("user_id", strconv.FormatInt(userID, 10)); err != nil {
		return err
	}
	if err := w.WriteField("caption", caption); err != nil {
		return err
	}
	part, err := w.CreateFormFile("media", "media")
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, media); err != nil {
		return fmt.Errorf("copy media: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("userbot bridge: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("userbot bridge: unexpected status %s", resp.Status)
	}

	b.log.Debug("published via bridge", zap.Int64("user_id", userID))
	return nil
}

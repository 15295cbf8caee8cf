package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// URLResolver resolves a Telegram file id to a direct download URL.
// *tgbotapi.BotAPI satisfies this via GetFileDirectURL.
type URLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Fetcher downloads media bytes into temporary working storage right before
// publication. The storage is scoped: every Fetch returns a cleanup that
// removes the file, and failed fetches leave nothing behind.
type Fetcher struct {
	resolver URLResolver
	fs       afero.Fs
	client   *http.Client
	log      *zap.Logger
}

func NewFetcher(resolver URLResolver, fs afero.Fs, client *http.Client, log *zap.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{resolver: resolver, fs: fs, client: client, log: log}
}

// Fetch resolves and downloads fileID into a temp file, returning the open
// file positioned at the start plus a cleanup that closes and removes it.
// Callers must run cleanup on every exit path.
func (f *Fetcher) Fetch(ctx context.Context, fileID string) (io.ReadCloser, func(), error) {
	url, err := f.resolver.GetFileDirectURL(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("download media: unexpected status %s", resp.Status)
	}

	tmp, err := afero.TempFile(f.fs, "", "historybot-media-*")
	if err != nil {
		return nil, nil, fmt.Errorf("temp file: %w", err)
	}
	cleanup := func() {
		name := tmp.Name()
		_ = tmp.Close()
		if err := f.fs.Remove(name); err != nil {
			f.log.Warn("temp media cleanup failed", zap.String("path", name), zap.Error(err))
		}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("write media: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, err
	}
	return tmp, cleanup, nil
}

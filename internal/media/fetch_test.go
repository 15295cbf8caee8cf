package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type stubResolver struct {
	url string
	err error
}

func (s stubResolver) GetFileDirectURL(string) (string, error) { return s.url, s.err }

func TestFetch_DownloadsAndCleansUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("media-bytes"))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	f := NewFetcher(stubResolver{url: srv.URL}, fs, srv.Client(), zap.NewNop())

	file, cleanup, err := f.Fetch(context.Background(), "file-abc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	got, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "media-bytes" {
		t.Fatalf("want media-bytes, got %q", got)
	}
	if n := countFiles(t, fs); n != 1 {
		t.Fatalf("want one temp file while in use, got %d", n)
	}

	cleanup()
	if n := countFiles(t, fs); n != 0 {
		t.Fatalf("cleanup must remove the temp file, %d left", n)
	}
}

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	n := 0
	err := afero.Walk(fs, "/", func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return n
}

func TestFetch_ResolverError(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := NewFetcher(stubResolver{err: errors.New("bad file id")}, fs, nil, zap.NewNop())

	if _, _, err := f.Fetch(context.Background(), "file-abc"); err == nil {
		t.Fatal("expected resolver error")
	}
	assertNoLeftovers(t, fs)
}

func TestFetch_HTTPFailureLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	f := NewFetcher(stubResolver{url: srv.URL}, fs, srv.Client(), zap.NewNop())

	if _, _, err := f.Fetch(context.Background(), "file-abc"); err == nil {
		t.Fatal("expected status error")
	}
	assertNoLeftovers(t, fs)
}

func assertNoLeftovers(t *testing.T, fs afero.Fs) {
	t.Helper()
	if n := countFiles(t, fs); n != 0 {
		t.Fatalf("temp storage not empty: %d files", n)
	}
}

package publish

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBridge_Publish(t *testing.T) {
	var gotUserID, gotCaption, gotMedia string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotUserID = r.FormValue("user_id")
		gotCaption = r.FormValue("caption")
		f, _, err := r.FormFile("media")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotMedia = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, srv.Client(), zap.NewNop())
	err := b.Publish(context.Background(), 42, strings.NewReader("media-bytes"), "https://example.com")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotUserID != "42" || gotCaption != "https://example.com" || gotMedia != "media-bytes" {
		t.Fatalf("bridge payload mismatch: user=%q caption=%q media=%q", gotUserID, gotCaption, gotMedia)
	}
}

func TestBridge_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, srv.Client(), zap.NewNop())
	err := b.Publish(context.Background(), 42, strings.NewReader("x"), "cap")
	if err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

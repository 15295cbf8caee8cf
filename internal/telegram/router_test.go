package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aLoneMass/historybot/internal/domain"
	"github.com/aLoneMass/historybot/internal/pipeline"
	"github.com/aLoneMass/historybot/internal/sched"
	"github.com/aLoneMass/historybot/internal/store"
)

// stubHTTPClient answers every Bot API call with a bare ok response, keeping
// the router testable without the network.
type stubHTTPClient struct{}

func (stubHTTPClient) Do(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body: io.NopCloser(strings.NewReader(
			`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"test","username":"testbot"}}`)),
	}, nil
}

func newTestRouter(t *testing.T) (*Router, *store.MemoryStore) {
	t.Helper()
	bot, err := tgbotapi.NewBotAPIWithClient("test-token", tgbotapi.APIEndpoint, stubHTTPClient{})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}

	st := store.NewMemory()
	sc := sched.New(zap.NewNop())
	t.Cleanup(sc.Stop)
	pipe := pipeline.New(context.Background(), pipeline.Config{
		WarningLead:    time.Minute,
		PublishTimeout: time.Minute,
		Location:       time.UTC,
	}, st, sc, nil, nil, nil, zap.NewNop())

	return NewRouter(bot, zap.NewNop(), pipe, st, time.UTC, time.Minute), st
}

// Telegram delivers callback queries without the originating message when it
// is too old or inaccessible; the router must key on the sender instead of
// panicking.
func TestHandleUpdate_CallbackWithoutMessage(t *testing.T) {
	r, st := newTestRouter(t)
	ctx := context.Background()

	_ = st.Put(ctx, &domain.PublicationSchedule{
		UserID:       42,
		MediaFileID:  "file-abc",
		Link:         "https://example.com",
		Hour:         12,
		IntervalDays: 1,
	})

	r.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: 42},
		Data: cbCancelNext,
	}})

	s, err := st.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !s.CancelNext {
		t.Fatal("cancel_next callback must set the flag")
	}

	r.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-2",
		From: &tgbotapi.User{ID: 42},
		Data: cbCancelAll,
	}})

	if _, err := st.Get(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cancel_all callback must delete the schedule, got %v", err)
	}
}

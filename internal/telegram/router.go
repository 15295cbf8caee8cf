package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aLoneMass/historybot/internal/domain"
	"github.com/aLoneMass/historybot/internal/pipeline"
	"github.com/aLoneMass/historybot/internal/store"
)

// Router wires Telegram updates to handlers and holds the in-memory intake
// drafts. It also implements pipeline.Chat for outbound notifications.
type Router struct {
	bot  *tgbotapi.BotAPI
	log  *zap.Logger
	pipe *pipeline.Pipeline
	repo store.Store

	loc  *time.Location
	lead time.Duration

	mu     sync.Mutex
	drafts map[int64]*draft // chatID -> in-progress intake
}

func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, pipe *pipeline.Pipeline, repo store.Store, loc *time.Location, lead time.Duration) *Router {
	return &Router{
		bot:    bot,
		log:    log,
		pipe:   pipe,
		repo:   repo,
		loc:    loc,
		lead:   lead,
		drafts: make(map[int64]*draft),
	}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(chatID)
		case strings.HasPrefix(text, "/status"):
			r.handleStatus(ctx, chatID)
		case strings.HasPrefix(text, "/cancel"):
			r.handleAbortIntake(chatID)
		case strings.HasPrefix(text, "/stop"):
			r.handleStop(ctx, chatID)
		default:
			r.handleIntakeMessage(ctx, msg)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.From == nil {
			return
		}
		// The originating message may be absent (too old or inaccessible);
		// the sender id is always present and is what the schedule is keyed
		// by anyway.
		chatID := cb.From.ID

		switch cb.Data {
		case cbCancelNext:
			if err := r.pipe.CancelNext(ctx, chatID); err != nil {
				r.log.Error("cancel next failed", zap.Int64("user_id", chatID), zap.Error(err))
				r.answerCallback(cb.ID, "Something went wrong, try again.")
				return
			}
			r.answerCallback(cb.ID, cancelNextAck)
			r.sendText(chatID, cancelNextAck)
		case cbCancelAll:
			if err := r.pipe.CancelAll(ctx, chatID); err != nil {
				r.log.Error("cancel all failed", zap.Int64("user_id", chatID), zap.Error(err))
				r.answerCallback(cb.ID, "Something went wrong, try again.")
				return
			}
			r.answerCallback(cb.ID, cancelAllAck)
			r.sendText(chatID, stoppedText)
		default:
			// Unknown callback — ignore silently
		}
		return
	}
}

// --- Commands ---

func (r *Router) handleStart(chatID int64) {
	r.beginIntake(chatID)
	r.sendText(chatID, startText)
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	s, err := r.repo.Get(ctx, chatID)
	if err != nil {
		r.sendText(chatID, noPlanText)
		return
	}
	next := "—"
	if e, ok := r.pipe.Armed(chatID); ok {
		next = e.FireAt.Add(r.lead).In(r.loc).Format("Mon, 02 Jan 15:04")
	} else if !s.NextAt.IsZero() {
		next = s.NextAt.In(r.loc).Format("Mon, 02 Jan 15:04")
	}
	r.sendText(chatID, fmt.Sprintf(statusFmt,
		s.IntervalDays,
		domain.FormatTimeOfDay(s.Hour, s.Minute),
		s.Link,
		next,
		r.lead.String(),
	))
}

func (r *Router) handleStop(ctx context.Context, chatID int64) {
	if err := r.pipe.CancelAll(ctx, chatID); err != nil {
		r.log.Error("stop failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not cancel the schedule, try again.")
		return
	}
	r.sendText(chatID, stoppedText)
}

// --- pipeline.Chat ---

// SendWarning delivers the cancellable pre-publication notice.
func (r *Router) SendWarning(userID int64, publishAt time.Time) error {
	in := time.Until(publishAt).Round(time.Minute)
	if in < 0 {
		in = 0
	}
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf(warningFmt,
		publishAt.In(r.loc).Format("15:04"), in))
	msg.ReplyMarkup = cancelKeyboard()
	_, err := r.bot.Send(msg)
	return err
}

func (r *Router) SendSkipped(userID int64, next time.Time) error {
	return r.send(userID, fmt.Sprintf(skippedFmt, r.fmtNext(next)))
}

func (r *Router) SendPublished(userID int64, next time.Time) error {
	return r.send(userID, fmt.Sprintf(publishedFmt, r.fmtNext(next)))
}

func (r *Router) SendPublishFailed(userID int64, next time.Time) error {
	return r.send(userID, fmt.Sprintf(failedFmt, r.fmtNext(next)))
}

// --- Helpers ---

func (r *Router) fmtNext(next time.Time) string {
	return next.In(r.loc).Format("Mon, 02 Jan 15:04")
}

func (r *Router) send(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *Router) sendText(chatID int64, text string) {
	if err := r.send(chatID, text); err != nil {
		r.log.Warn("send failed", zap.Int64("user_id", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.log.Warn("answer callback failed", zap.Error(err))
	}
}

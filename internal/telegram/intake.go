package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aLoneMass/historybot/internal/domain"
)

// The intake flow is a linear four-step form: media → link → interval → time.
// Validation errors re-prompt the same step and are never propagated.

type step int

const (
	stepMedia step = iota + 1
	stepLink
	stepDays
	stepTime
)

type draft struct {
	step         step
	mediaFileID  string
	link         string
	intervalDays int
}

func (r *Router) beginIntake(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[chatID] = &draft{step: stepMedia}
}

func (r *Router) currentDraft(chatID int64) *draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[chatID]
}

func (r *Router) clearDraft(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, chatID)
}

func (r *Router) handleAbortIntake(chatID int64) {
	if r.currentDraft(chatID) == nil {
		r.sendText(chatID, nothingToAbort)
		return
	}
	r.clearDraft(chatID)
	r.sendText(chatID, intakeAborted)
}

// handleIntakeMessage advances the draft by one step. Messages outside an
// active intake are ignored.
func (r *Router) handleIntakeMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	d := r.currentDraft(chatID)
	if d == nil {
		return
	}

	switch d.step {
	case stepMedia:
		fileID, ok := extractMediaFileID(msg)
		if !ok {
			r.sendText(chatID, askMediaText)
			return
		}
		d.mediaFileID = fileID
		d.step = stepLink
		r.sendText(chatID, askLinkText)

	case stepLink:
		link, err := domain.ValidateLink(msg.Text)
		if err != nil {
			r.sendText(chatID, badLinkText)
			return
		}
		d.link = link
		d.step = stepDays
		r.sendText(chatID, askDaysText)

	case stepDays:
		n, err := domain.ParseIntervalDays(msg.Text)
		if err != nil {
			r.sendText(chatID, badDaysText)
			return
		}
		d.intervalDays = n
		d.step = stepTime
		r.sendText(chatID, askTimeText)

	case stepTime:
		hour, minute, err := domain.ParseTimeOfDay(msg.Text)
		if err != nil {
			r.sendText(chatID, badTimeText)
			return
		}
		r.completeIntake(ctx, chatID, d, hour, minute)
	}
}

func (r *Router) completeIntake(ctx context.Context, chatID int64, d *draft, hour, minute int) {
	s := &domain.PublicationSchedule{
		UserID:       chatID,
		MediaFileID:  d.mediaFileID,
		Link:         d.link,
		Hour:         hour,
		Minute:       minute,
		IntervalDays: d.intervalDays,
	}
	first, err := r.pipe.Schedule(ctx, s)
	if err != nil {
		r.log.Error("schedule registration failed", zap.Int64("user_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save the schedule, please try /start again.")
		r.clearDraft(chatID)
		return
	}
	r.clearDraft(chatID)
	r.sendText(chatID, fmt.Sprintf(scheduledFmt,
		s.IntervalDays,
		domain.FormatTimeOfDay(hour, minute),
		r.lead.String(),
		first.In(r.loc).Format("Mon, 02 Jan 15:04"),
	))
}

// extractMediaFileID pulls the file id of a photo (largest size) or video.
func extractMediaFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Video != nil {
		return msg.Video.FileID, true
	}
	return "", false
}

package publish

import (
	"context"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Loopback reposts the media back into the user's own chat through the bot.
// It stands in for the userbot bridge when no endpoint is configured, keeping
// the whole warn→publish cycle usable in development.
type Loopback struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

func NewLoopback(bot *tgbotapi.BotAPI, log *zap.Logger) *Loopback {
	return &Loopback{bot: bot, log: log}
}

func (l *Loopback) Publish(_ context.Context, userID int64, media io.Reader, caption string) error {
	doc := tgbotapi.NewDocument(userID, tgbotapi.FileReader{Name: "story", Reader: media})
	doc.Caption = caption
	if _, err := l.bot.Send(doc); err != nil {
		return err
	}
	l.log.Debug("published via loopback", zap.Int64("user_id", userID))
	return nil
}

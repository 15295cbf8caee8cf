package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	startText = "👋 I publish your story on a schedule.\n\n" +
		"Send the photo or short video you want to repost. I will ask for the " +
		"link, how often to publish and at what time — and warn you before " +
		"every publication so you can cancel it."
	askMediaText = "Please send a photo or a short video."
	askLinkText  = "Now send the link to attach to the story (it must start with a scheme, e.g. https://)."
	askDaysText  = "How often should I publish, in days? For example: 1, 3, 7"
	askTimeText  = "At what time? Use HH:MM, e.g. 14:30"

	badLinkText = "That does not look like a link. It must contain a scheme, e.g. https://example.com"
	badDaysText = "Please enter a whole number of days greater than zero, e.g. 2"
	badTimeText = "Time must be HH:MM, e.g. 09:00 or 23:45."

	scheduledFmt = "✅ Scheduled! I will publish every %d day(s) at %s and warn you %s before each post.\nFirst publication: %s"

	warningFmt = "⏳ Your story will be published at %s (in %s). Cancel it?"

	skippedFmt   = "⏭ This publication was skipped. Next one: %s"
	publishedFmt = "📢 Story published. Next one: %s"
	failedFmt    = "⚠️ Publishing failed this time; the next occurrence is unaffected: %s"

	statusFmt  = "🧾 Your schedule:\n• Every %d day(s) at %s\n• Link: %s\n• Next publication: %s\n• Warning: %s before"
	noPlanText = "You have no active schedule. Send /start to create one."

	stoppedText    = "🛑 The whole schedule is cancelled."
	cancelNextAck  = "The next publication will be skipped."
	cancelAllAck   = "The whole schedule is cancelled."
	intakeAborted  = "Okay, setup aborted. Send /start to begin again."
	nothingToAbort = "Nothing to abort."
)

const (
	cbCancelNext = "cancel_next"
	cbCancelAll  = "cancel_all"
)

// cancelKeyboard is attached to every pre-publication warning.
func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip this one", cbCancelNext),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛑 Stop everything", cbCancelAll),
		),
	)
}

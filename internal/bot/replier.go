package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	"leadbot/core/telegram/sender"
)

// PhotoMessage is a captioned photo reply. An empty URL downgrades it to text.
type PhotoMessage struct {
	URL     string
	Caption string
}

// Replier sends outbound messages for the dispatcher and the conversation
// engine. SendText and SendPhoto are synchronous; DispatchPhoto goes through
// the async sender queue and is fire-and-forget.
type Replier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo PhotoMessage) error
	DispatchPhoto(ctx context.Context, chatID int64, photo PhotoMessage)
}

// TelebotReplier implements Replier over a telebot instance.
type TelebotReplier struct {
	bot  *tele.Bot
	disp *sender.Dispatcher
}

// NewTelebotReplier wraps the bot; disp may be nil, which makes DispatchPhoto
// synchronous.
func NewTelebotReplier(bot *tele.Bot, disp *sender.Dispatcher) *TelebotReplier {
	return &TelebotReplier{bot: bot, disp: disp}
}

var markdownOpts = &tele.SendOptions{ParseMode: tele.ModeMarkdown}

// SendText sends a Markdown text message.
func (r *TelebotReplier) SendText(_ context.Context, chatID int64, text string) error {
	_, err := r.bot.Send(tele.ChatID(chatID), text, markdownOpts)
	return err
}

// SendPhoto sends a photo with a Markdown caption, or plain text when the
// photo URL is empty.
func (r *TelebotReplier) SendPhoto(ctx context.Context, chatID int64, photo PhotoMessage) error {
	if photo.URL == "" {
		return r.SendText(ctx, chatID, photo.Caption)
	}
	p := &tele.Photo{File: tele.FromURL(photo.URL), Caption: photo.Caption}
	_, err := r.bot.Send(tele.ChatID(chatID), p, markdownOpts)
	return err
}

// DispatchPhoto enqueues the photo send on the async dispatcher, falling back
// to a synchronous send when the queue is unavailable. Failures are logged,
// never returned.
func (r *TelebotReplier) DispatchPhoto(ctx context.Context, chatID int64, photo PhotoMessage) {
	run := func() error { return r.SendPhoto(ctx, chatID, photo) }
	if r.disp != nil {
		if err := r.disp.Enqueue(ctx, "send.photo", run); err == nil {
			return
		}
	}
	if err := run(); err != nil {
		logger.Error(ctx, "tg.sender", "send.fail",
			slog.String("action", "send.photo"),
			slog.Int64("chat_id", chatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

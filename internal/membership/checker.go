// Package membership answers whether a user belongs to the community channel.
package membership

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
)

// ChatMemberAPI is the slice of the Telegram client the checker needs.
type ChatMemberAPI interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Checker queries channel membership for a configured channel.
type Checker struct {
	api     ChatMemberAPI
	channel tele.ChatID
}

// NewChecker builds a checker for the given channel id.
func NewChecker(api ChatMemberAPI, channelID int64) *Checker {
	return &Checker{api: api, channel: tele.ChatID(channelID)}
}

// IsMember reports whether the user is a member, administrator, or creator of
// the channel. Any transport error degrades to false and is never surfaced.
func (c *Checker) IsMember(ctx context.Context, userID int64) bool {
	member, err := c.api.ChatMemberOf(c.channel, &tele.User{ID: userID})
	if err != nil {
		logger.Debug(ctx, "tg", "membership.check",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return false
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	}
	return false
}

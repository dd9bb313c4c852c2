// Package middleware contains the shared handler wrappers applied to every route.
package middleware

import (
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	tghelpers "leadbot/core/telegram/helpers"
)

// RecoverMiddleware turns handler panics into an error log so one bad update
// cannot take the poller down.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				ctx := tghelpers.BuildContext(c)
				logger.Error(ctx, "tg", "panic.recovered",
					slog.Any("err", r),
					slog.String("stack", logger.SanitizeLimit(string(debug.Stack()), 4096)),
				)
			}
		}()
		return next(c)
	}
}

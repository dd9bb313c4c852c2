// Package app assembles the bot from its parts and owns the run lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/database"
	"leadbot/core/logger"
	"leadbot/core/telegram"
	"leadbot/core/telegram/middleware"
	"leadbot/core/telegram/sender"
	"leadbot/internal/bot"
	"leadbot/internal/lead"
	"leadbot/internal/membership"
	"leadbot/internal/onboarding"
)

// Run starts the bot and blocks until ctx is cancelled or a fatal error
// occurs.
func Run(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("app: nil config provided")
	}

	if err := logger.InitLogger(&cfg.Core); err != nil {
		return fmt.Errorf("app: logger init failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			fmt.Println("logger shutdown:", err)
		}
	}()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("app: migrations failed: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("app: database connect failed: %w", err)
	}
	defer db.Close()

	tgBot, err := telegram.NewBot(&cfg.Core)
	if err != nil {
		return err
	}

	disp := sender.NewDispatcher(sender.Options{})
	replier := bot.NewTelebotReplier(tgBot, disp)

	timeout := time.Duration(cfg.Core.Onboarding.AnswerTimeoutSeconds) * time.Second
	engine := onboarding.NewEngine(onboarding.NewArena(), replier, timeout)

	handler := bot.NewHandler(
		lead.NewPostgresStore(db),
		membership.NewChecker(tgBot, cfg.Core.Channel.ID),
		engine,
		replier,
		bot.NewMessages(&cfg.Core),
	)

	opts := telegram.RunOptions{
		Middlewares: []tele.MiddlewareFunc{
			middleware.RecoverMiddleware,
			middleware.LoggerMiddleware,
		},
		Routes: []telegram.Route{
			{Endpoint: "/start", Handler: handler.Start},
			{Endpoint: tele.OnText, Handler: handler.Text},
		},
		Commands: []tele.Command{
			{Text: "start", Description: "Start onboarding"},
		},
		OnStart: func(ctx context.Context, b *tele.Bot) error {
			logger.Info(ctx, "bot", "bot.ready",
				slog.Int64("bot_id", b.Me.ID),
				slog.String("username", b.Me.Username),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			disp.Close()
			if n := disp.ErrorCount(); n > 0 {
				logger.Warn(ctx, "bot", "sender.errors", slog.Uint64("count", n))
			}
			return nil
		},
	}

	return telegram.Run(ctx, tgBot, opts)
}

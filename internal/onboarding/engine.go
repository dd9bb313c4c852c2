package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"leadbot/core/logger"
)

// ErrAbandoned is returned when a question wait is cut short: the session was
// torn down, a newer question displaced this one, or the answer timeout fired.
var ErrAbandoned = errors.New("onboarding: session abandoned")

// Sender delivers a prompt to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Engine asks questions and suspends until the matching reply arrives.
type Engine struct {
	arena   *Arena
	sender  Sender
	timeout time.Duration
}

// NewEngine builds an engine. A zero timeout waits for answers forever.
func NewEngine(arena *Arena, sender Sender, timeout time.Duration) *Engine {
	return &Engine{arena: arena, sender: sender, timeout: timeout}
}

// Begin reserves a session for key. See Arena.Begin.
func (e *Engine) Begin(key Key) bool { return e.arena.Begin(key) }

// End releases the session for key. See Arena.End.
func (e *Engine) End(key Key) { e.arena.End(key) }

// InProgress reports whether key has an active session.
func (e *Engine) InProgress(key Key) bool { return e.arena.InProgress(key) }

// Resolve offers inbound text as the answer to the pending question for key.
func (e *Engine) Resolve(key Key, text string) bool { return e.arena.Resolve(key, text) }

// Ask sends prompt and waits for the next reply from exactly this key.
// Replies from other chats or users do not consume the wait.
func (e *Engine) Ask(ctx context.Context, key Key, prompt string) (string, error) {
	ch := e.arena.expect(key)
	defer e.arena.forget(key, ch)

	if err := e.sender.SendText(ctx, key.ChatID, prompt); err != nil {
		return "", err
	}

	var timeoutCh <-chan time.Time
	if e.timeout > 0 {
		t := time.NewTimer(e.timeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	select {
	case answer, ok := <-ch:
		if !ok {
			return "", ErrAbandoned
		}
		return strings.TrimSpace(answer), nil
	case <-timeoutCh:
		logger.Debug(ctx, "bot", "ask.timeout",
			slog.Int64("chat_id", key.ChatID),
			slog.Int64("user_id", key.UserID),
		)
		return "", ErrAbandoned
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// AskUntilValid repeats Ask until validate accepts the answer, sending
// errorMsg after each rejected one. A nil validate accepts anything.
// There is no retry cap; the loop ends only with a valid answer or a
// failed/abandoned wait.
func (e *Engine) AskUntilValid(ctx context.Context, key Key, prompt string, validate func(string) bool, errorMsg string) (string, error) {
	for {
		answer, err := e.Ask(ctx, key, prompt)
		if err != nil {
			return "", err
		}
		if validate == nil || validate(answer) {
			return answer, nil
		}
		if err := e.sender.SendText(ctx, key.ChatID, errorMsg); err != nil {
			return "", err
		}
	}
}

package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadbot/internal/validate"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	errOn string
}

func (s *recordingSender) SendText(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errOn != "" && s.errOn == text {
		return errors.New("send failed")
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *recordingSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func newTestEngine(timeout time.Duration) (*Engine, *recordingSender) {
	sender := &recordingSender{}
	return NewEngine(NewArena(), sender, timeout), sender
}

func askAsync(e *Engine, key Key, prompt string) (<-chan string, <-chan error) {
	answers := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		a, err := e.Ask(context.Background(), key, prompt)
		answers <- a
		errs <- err
	}()
	return answers, errs
}

func waitForPending(t *testing.T, e *Engine, key Key) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		e.arena.mu.Lock()
		_, ok := e.arena.waiting[key]
		e.arena.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no pending listener registered")
}

func TestAskDeliversMatchingReply(t *testing.T) {
	e, sender := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}

	answers, errs := askAsync(e, key, "country?")
	waitForPending(t, e, key)

	// Replies from other chats or users are not consumed.
	assert.False(t, e.Resolve(Key{ChatID: 1, UserID: 3}, "nope"))
	assert.False(t, e.Resolve(Key{ChatID: 9, UserID: 2}, "nope"))

	require.True(t, e.Resolve(key, "  USA  "))
	assert.Equal(t, "USA", <-answers)
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"country?"}, sender.messages())
}

func TestAskTimesOut(t *testing.T) {
	e, _ := newTestEngine(20 * time.Millisecond)
	key := Key{ChatID: 1, UserID: 2}

	_, err := e.Ask(context.Background(), key, "country?")
	assert.ErrorIs(t, err, ErrAbandoned)
}

func TestAskHonoursContextCancel(t *testing.T) {
	e, _ := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := e.Ask(ctx, key, "country?")
		errs <- err
	}()
	waitForPending(t, e, key)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestAskPropagatesSendFailure(t *testing.T) {
	e, sender := newTestEngine(0)
	sender.errOn = "country?"

	_, err := e.Ask(context.Background(), Key{ChatID: 1, UserID: 2}, "country?")
	assert.Error(t, err)
}

func TestAskUntilValidRepromptsOnce(t *testing.T) {
	e, sender := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}

	answers := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		a, err := e.AskUntilValid(context.Background(), key, "phone?", validate.Phone, "bad phone")
		answers <- a
		errs <- err
	}()

	waitForPending(t, e, key)
	require.True(t, e.Resolve(key, "abc"))
	waitForPending(t, e, key)
	require.True(t, e.Resolve(key, "+15551234567"))

	require.NoError(t, <-errs)
	assert.Equal(t, "+15551234567", <-answers)
	// One initial prompt, exactly one error message, one re-prompt.
	assert.Equal(t, []string{"phone?", "bad phone", "phone?"}, sender.messages())
}

func TestAskUntilValidNilValidatorAcceptsAnything(t *testing.T) {
	e, _ := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}

	answers := make(chan string, 1)
	go func() {
		a, _ := e.AskUntilValid(context.Background(), key, "anything?", nil, "unused")
		answers <- a
	}()
	waitForPending(t, e, key)
	require.True(t, e.Resolve(key, "whatever"))
	assert.Equal(t, "whatever", <-answers)
}

func TestSingleListenerPerKey(t *testing.T) {
	e, _ := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}

	_, errs1 := askAsync(e, key, "first?")
	waitForPending(t, e, key)
	answers2, errs2 := askAsync(e, key, "second?")
	waitForPending(t, e, key)

	// The first wait is failed out; one resolve answers only the second.
	assert.ErrorIs(t, <-errs1, ErrAbandoned)
	require.True(t, e.Resolve(key, "answer"))
	require.NoError(t, <-errs2)
	assert.Equal(t, "answer", <-answers2)
	assert.False(t, e.Resolve(key, "again"), "resolved listener must not fire twice")
}

func TestBeginIsExclusive(t *testing.T) {
	e, _ := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}

	require.True(t, e.Begin(key))
	assert.False(t, e.Begin(key), "second concurrent session refused")
	assert.True(t, e.InProgress(key))

	e.End(key)
	assert.False(t, e.InProgress(key))
	assert.True(t, e.Begin(key), "key reusable after End")
	e.End(key)
}

func TestEndFailsPendingWait(t *testing.T) {
	e, _ := newTestEngine(0)
	key := Key{ChatID: 1, UserID: 2}
	require.True(t, e.Begin(key))

	_, errs := askAsync(e, key, "country?")
	waitForPending(t, e, key)
	e.End(key)
	assert.ErrorIs(t, <-errs, ErrAbandoned)
}

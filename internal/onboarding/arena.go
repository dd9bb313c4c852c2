// Package onboarding drives the sequential question/answer exchange for one user.
package onboarding

import "sync"

// Key identifies one conversation: replies are matched on the exact
// (chat, user) pair.
type Key struct {
	ChatID int64
	UserID int64
}

// Arena tracks onboarding sessions and their pending answer listeners.
// Invariant: at most one pending question per key; registering a new listener
// fails the previous one out.
type Arena struct {
	mu      sync.Mutex
	active  map[Key]struct{}
	waiting map[Key]chan string
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		active:  make(map[Key]struct{}),
		waiting: make(map[Key]chan string),
	}
}

// Begin reserves an onboarding session for key. It returns false when a
// session is already in progress, which makes back-to-back start commands
// idempotent.
func (a *Arena) Begin(key Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.active[key]; ok {
		return false
	}
	a.active[key] = struct{}{}
	return true
}

// End releases the session and drops any stale listener.
func (a *Arena) End(key Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.active, key)
	if ch, ok := a.waiting[key]; ok {
		delete(a.waiting, key)
		close(ch)
	}
}

// InProgress reports whether an onboarding session is active for key.
func (a *Arena) InProgress(key Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.active[key]
	return ok
}

// Resolve delivers an answer to the pending listener for key, if any.
// It reports whether the text was consumed. The listener is removed before
// delivery, so a resolved question can never fire twice.
func (a *Arena) Resolve(key Key, text string) bool {
	a.mu.Lock()
	ch, ok := a.waiting[key]
	if ok {
		delete(a.waiting, key)
	}
	a.mu.Unlock()
	if !ok {
		return false
	}
	ch <- text
	close(ch)
	return true
}

// expect registers the answer listener for key. A stale listener left behind
// by an earlier question is closed out first.
func (a *Arena) expect(key Key) chan string {
	ch := make(chan string, 1)
	a.mu.Lock()
	if old, ok := a.waiting[key]; ok {
		close(old)
	}
	a.waiting[key] = ch
	a.mu.Unlock()
	return ch
}

// forget removes the listener for key if it is still the registered one.
func (a *Arena) forget(key Key, ch chan string) {
	a.mu.Lock()
	if cur, ok := a.waiting[key]; ok && cur == ch {
		delete(a.waiting, key)
	}
	a.mu.Unlock()
}

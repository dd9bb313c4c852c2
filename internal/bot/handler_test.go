package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadbot/internal/lead"
	"leadbot/internal/onboarding"
)

type fakeReplier struct {
	mu         sync.Mutex
	texts      []string
	photos     []PhotoMessage
	dispatched []PhotoMessage
}

func (r *fakeReplier) SendText(_ context.Context, _ int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *fakeReplier) SendPhoto(_ context.Context, _ int64, p PhotoMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos = append(r.photos, p)
	return nil
}

func (r *fakeReplier) DispatchPhoto(_ context.Context, _ int64, p PhotoMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched = append(r.dispatched, p)
}

func (r *fakeReplier) textCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

func (r *fakeReplier) allTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *fakeReplier) sentPhotos() []PhotoMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PhotoMessage(nil), r.photos...)
}

func (r *fakeReplier) dispatchedPhotos() []PhotoMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PhotoMessage(nil), r.dispatched...)
}

type fakeMembers struct{ member bool }

func (f fakeMembers) IsMember(context.Context, int64) bool { return f.member }

func testMessages() Messages {
	return Messages{
		CommunityName:   "Testers Club",
		InviteLink:      "https://t.me/+invite",
		SupportContact:  "@support",
		WelcomePhotoURL: "https://img.example/welcome.jpg",
		MemberPhotoURL:  "https://img.example/member.jpg",
		JoinPhotoURL:    "https://img.example/join.jpg",
	}
}

type fixture struct {
	handler *Handler
	store   *lead.InMemoryStore
	replier *fakeReplier
	members *fakeMembers
}

func newFixture() *fixture {
	store := lead.NewInMemoryStore()
	replier := &fakeReplier{}
	members := &fakeMembers{}
	engine := onboarding.NewEngine(onboarding.NewArena(), replier, 2*time.Second)
	h := NewHandler(store, members, engine, replier, testMessages())
	return &fixture{handler: h, store: store, replier: replier, members: members}
}

func (f *fixture) waitForTexts(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.replier.textCount() >= n },
		time.Second, 5*time.Millisecond)
}

func startUser() Incoming {
	return Incoming{ChatID: 100, UserID: 7, Username: "jane", FirstName: "Jane", Text: "/start"}
}

func (f *fixture) answer(t *testing.T, in Incoming, text string) {
	t.Helper()
	reply := in
	reply.Text = text
	require.NoError(t, f.handler.HandleText(context.Background(), reply))
}

func TestOnboardingHappyPath(t *testing.T) {
	f := newFixture()
	in := startUser()

	done := make(chan error, 1)
	go func() { done <- f.handler.HandleStart(context.Background(), in) }()

	f.waitForTexts(t, 1)
	f.answer(t, in, "USA")
	f.waitForTexts(t, 2)
	f.answer(t, in, "+15551234567")
	f.waitForTexts(t, 3)
	f.answer(t, in, "x@y.com")

	require.NoError(t, <-done)

	leads := f.store.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, "jane", leads[0].Identity)
	assert.Equal(t, "United States", leads[0].Country)
	assert.Equal(t, "+15551234567", leads[0].Phone)
	assert.Equal(t, "x@y.com", leads[0].Email)

	photos := f.replier.sentPhotos()
	require.Len(t, photos, 1)
	assert.Equal(t, "https://img.example/welcome.jpg", photos[0].URL)
	assert.Contains(t, photos[0].Caption, "Jane")

	dispatched := f.replier.dispatchedPhotos()
	require.Len(t, dispatched, 1)
	assert.Equal(t, "https://img.example/join.jpg", dispatched[0].URL)
	assert.Contains(t, dispatched[0].Caption, "https://t.me/+invite")
}

func TestOnboardingRepromptsInvalidPhone(t *testing.T) {
	f := newFixture()
	in := startUser()

	done := make(chan error, 1)
	go func() { done <- f.handler.HandleStart(context.Background(), in) }()

	f.waitForTexts(t, 1)
	f.answer(t, in, "UK")
	f.waitForTexts(t, 2)
	f.answer(t, in, "call me maybe")
	// error message plus re-sent phone prompt
	f.waitForTexts(t, 4)
	f.answer(t, in, "+442071234567")
	f.waitForTexts(t, 5)
	f.answer(t, in, "a@b.co")

	require.NoError(t, <-done)

	texts := f.replier.allTexts()
	assert.Equal(t, []string{msgAskCountry, msgAskPhone, msgBadPhone, msgAskPhone, msgAskEmail}, texts)

	leads := f.store.Leads()
	require.Len(t, leads, 1)
	assert.Equal(t, "United Kingdom", leads[0].Country)
	assert.Equal(t, "+442071234567", leads[0].Phone)
}

func TestDuplicateStartIsIgnored(t *testing.T) {
	f := newFixture()
	in := startUser()

	done := make(chan error, 1)
	go func() { done <- f.handler.HandleStart(context.Background(), in) }()
	f.waitForTexts(t, 1)

	// The second /start while a flow is live must not send another greeting
	// or consume the pending question.
	require.NoError(t, f.handler.HandleStart(context.Background(), in))
	assert.Len(t, f.replier.sentPhotos(), 1)

	f.answer(t, in, "India")
	f.waitForTexts(t, 2)
	f.answer(t, in, "9876543210")
	f.waitForTexts(t, 3)
	f.answer(t, in, "c@d.in")

	require.NoError(t, <-done)
	assert.Len(t, f.store.Leads(), 1)
}

func TestStartForRegisteredMember(t *testing.T) {
	f := newFixture()
	f.members.member = true
	require.NoError(t, f.store.Save(context.Background(), lead.Lead{Identity: "jane"}))

	require.NoError(t, f.handler.HandleStart(context.Background(), startUser()))

	dispatched := f.replier.dispatchedPhotos()
	require.Len(t, dispatched, 1)
	assert.Equal(t, "https://img.example/member.jpg", dispatched[0].URL)
	assert.Empty(t, f.replier.sentPhotos())
	assert.Len(t, f.store.Leads(), 1)
}

func TestStartForRegisteredNonMember(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.Save(context.Background(), lead.Lead{Identity: "jane"}))

	require.NoError(t, f.handler.HandleStart(context.Background(), startUser()))

	dispatched := f.replier.dispatchedPhotos()
	require.Len(t, dispatched, 1)
	assert.Equal(t, "https://img.example/join.jpg", dispatched[0].URL)
	assert.Contains(t, dispatched[0].Caption, "https://t.me/+invite")
}

func TestTextFromUnknownUserIsIgnored(t *testing.T) {
	f := newFixture()
	in := startUser()
	in.Text = "hello there"

	require.NoError(t, f.handler.HandleText(context.Background(), in))

	assert.Empty(t, f.replier.allTexts())
	assert.Empty(t, f.replier.sentPhotos())
	assert.Empty(t, f.replier.dispatchedPhotos())
}

func TestTextFromRegisteredUserGetsStatus(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.Save(context.Background(), lead.Lead{Identity: "jane"}))

	in := startUser()
	in.Text = "am I in yet?"
	require.NoError(t, f.handler.HandleText(context.Background(), in))

	require.Len(t, f.replier.dispatchedPhotos(), 1)
}

func TestStartCommandIsCaseInsensitive(t *testing.T) {
	f := newFixture()
	in := startUser()
	in.Text = "  /START  "

	done := make(chan error, 1)
	go func() { done <- f.handler.HandleText(context.Background(), in) }()

	f.waitForTexts(t, 1)
	assert.True(t, strings.Contains(f.replier.allTexts()[0], "country"))

	f.answer(t, in, "Brazil")
	f.waitForTexts(t, 2)
	f.answer(t, in, "+5511987654321")
	f.waitForTexts(t, 3)
	f.answer(t, in, "e@f.br")

	require.NoError(t, <-done)
	assert.Len(t, f.store.Leads(), 1)
}

func TestLookupFailureDoesNotBlockOnboarding(t *testing.T) {
	f := newFixture()
	f.store.LookupErr = assert.AnError

	in := startUser()
	done := make(chan error, 1)
	go func() { done <- f.handler.HandleStart(context.Background(), in) }()

	f.waitForTexts(t, 1)
	assert.Equal(t, msgAskCountry, f.replier.allTexts()[0])

	f.answer(t, in, "Canada")
	f.waitForTexts(t, 2)
	f.answer(t, in, "+14165550123")
	f.waitForTexts(t, 3)
	f.answer(t, in, "g@h.ca")
	require.NoError(t, <-done)
}

func TestSaveFailureStillSendsInvite(t *testing.T) {
	f := newFixture()
	f.store.SaveErr = assert.AnError

	in := startUser()
	done := make(chan error, 1)
	go func() { done <- f.handler.HandleStart(context.Background(), in) }()

	f.waitForTexts(t, 1)
	f.answer(t, in, "Germany")
	f.waitForTexts(t, 2)
	f.answer(t, in, "+493012345678")
	f.waitForTexts(t, 3)
	f.answer(t, in, "i@j.de")

	require.NoError(t, <-done)
	assert.Empty(t, f.store.Leads())

	dispatched := f.replier.dispatchedPhotos()
	require.Len(t, dispatched, 1)
	assert.Equal(t, "https://img.example/join.jpg", dispatched[0].URL)
}
